package wifi

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestSynthesizeGoldenValues checks the exact serialized form for a
// known credential: SSID LabWifi, password Secret123.
func TestSynthesizeGoldenValues(t *testing.T) {
	data, err := Synthesize(Credential{SSID: "LabWifi", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Failed to synthesize profile: %v", err)
	}

	content := string(data)
	for _, want := range []string{
		"<name>LabWifi</name>",
		"<hex>4C616257696669</hex>",
		"<protected>false</protected>",
		"<keyMaterial>Secret123</keyMaterial>",
		"<authentication>WPA2PSK</authentication>",
		"<encryption>AES</encryption>",
		"<connectionType>ESS</connectionType>",
		"<connectionMode>auto</connectionMode>",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Profile is missing %s:\n%s", want, content)
		}
	}
}

// TestSSIDHexRoundTrip verifies the hex encoding decodes back to the
// literal SSID.
func TestSSIDHexRoundTrip(t *testing.T) {
	ssids := []string{"LabWifi", "a", "guest network", "Caf\u00e9-5G"}

	for _, ssid := range ssids {
		decoded, err := DecodeSSIDHex(EncodeSSIDHex(ssid))
		if err != nil {
			t.Fatalf("Failed to decode hex for %q: %v", ssid, err)
		}
		if decoded != ssid {
			t.Errorf("Round trip changed SSID: %q -> %q", ssid, decoded)
		}
	}
}

// TestSynthesizedProfileValidates makes sure a synthesized profile
// passes the import validation applied to external artifacts.
func TestSynthesizedProfileValidates(t *testing.T) {
	data, err := Synthesize(Credential{SSID: "LabWifi", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Failed to synthesize profile: %v", err)
	}

	path := filepath.Join(t.TempDir(), "profile.xml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	name, err := ValidateProfileFile(path)
	if err != nil {
		t.Fatalf("Synthesized profile failed validation: %v", err)
	}
	if name != "LabWifi" {
		t.Errorf("Expected profile name LabWifi, got %q", name)
	}
}

// TestInputValidateRejectsBoth checks that credential and profile file
// together are rejected.
func TestInputValidateRejectsBoth(t *testing.T) {
	input := Input{
		Credential:  &Credential{SSID: "LabWifi", Password: "Secret123"},
		ProfilePath: "/tmp/profile.xml",
	}

	if err := input.Validate(); !errors.Is(err, ErrConflictingInput) {
		t.Errorf("Expected ErrConflictingInput, got %v", err)
	}
}

func TestInputValidateIncompleteCredential(t *testing.T) {
	if err := (Input{Credential: &Credential{SSID: "LabWifi"}}).Validate(); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("Expected ErrEmptyPassword, got %v", err)
	}
	if err := (Input{Credential: &Credential{Password: "x"}}).Validate(); !errors.Is(err, ErrEmptySSID) {
		t.Errorf("Expected ErrEmptySSID, got %v", err)
	}
	if err := (Input{}).Validate(); err != nil {
		t.Errorf("Empty input should validate, got %v", err)
	}
}

// TestValidateProfileFileRejectsBadArtifacts covers missing name and
// missing unprotected-key marker.
func TestValidateProfileFileRejectsBadArtifacts(t *testing.T) {
	dir := t.TempDir()

	noName := filepath.Join(dir, "noname.xml")
	os.WriteFile(noName, []byte(`<WLANProfile><MSM><security><sharedKey><protected>false</protected></sharedKey></security></MSM></WLANProfile>`), 0644)
	if _, err := ValidateProfileFile(noName); !errors.Is(err, ErrNoProfileName) {
		t.Errorf("Expected ErrNoProfileName, got %v", err)
	}

	protected := filepath.Join(dir, "protected.xml")
	os.WriteFile(protected, []byte(`<WLANProfile><name>Lab</name><MSM><security><sharedKey><protected>true</protected></sharedKey></security></MSM></WLANProfile>`), 0644)
	if _, err := ValidateProfileFile(protected); !errors.Is(err, ErrKeyProtected) {
		t.Errorf("Expected ErrKeyProtected, got %v", err)
	}

	notXML := filepath.Join(dir, "garbage.xml")
	os.WriteFile(notXML, []byte("not a profile"), 0644)
	if _, err := ValidateProfileFile(notXML); err == nil {
		t.Error("Expected an error for a non-XML artifact")
	}
}
