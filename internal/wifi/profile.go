package wifi

import (
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrConflictingInput = errors.New("both a wifi credential and a profile file were supplied")
	ErrEmptySSID        = errors.New("wifi SSID must not be empty")
	ErrEmptyPassword    = errors.New("wifi password must not be empty")
	ErrNoProfileName    = errors.New("profile has no name element")
	ErrKeyProtected     = errors.New("profile does not carry an unprotected key marker")
)

// wlanNamespace is the schema the preboot environment's wireless stack
// expects for imported profiles.
const wlanNamespace = "http://www.microsoft.com/networking/WLAN/profile/v1"

// Credential is an SSID/password pair used to synthesize a profile.
// Authentication is always WPA2-PSK with AES; nothing else is supported
// by the unattended connect path.
type Credential struct {
	SSID     string
	Password string
}

// Input selects the profile source for one run. At most one of the two
// fields may be set; with neither set, a stale profile from a previous
// run is deleted instead.
type Input struct {
	Credential  *Credential
	ProfilePath string
}

// Validate rejects contradictory or incomplete input. It runs before
// any mount is opened.
func (in Input) Validate() error {
	if in.Credential != nil && in.ProfilePath != "" {
		return ErrConflictingInput
	}
	if in.Credential != nil {
		if in.Credential.SSID == "" {
			return ErrEmptySSID
		}
		if in.Credential.Password == "" {
			return ErrEmptyPassword
		}
	}
	return nil
}

type profileXML struct {
	XMLName        xml.Name      `xml:"WLANProfile"`
	Namespace      string        `xml:"xmlns,attr"`
	Name           string        `xml:"name"`
	SSIDConfig     ssidConfigXML `xml:"SSIDConfig"`
	ConnectionType string        `xml:"connectionType"`
	ConnectionMode string        `xml:"connectionMode"`
	MSM            msmXML        `xml:"MSM"`
}

type ssidConfigXML struct {
	SSID ssidXML `xml:"SSID"`
}

type ssidXML struct {
	Hex  string `xml:"hex"`
	Name string `xml:"name"`
}

type msmXML struct {
	Security securityXML `xml:"security"`
}

type securityXML struct {
	AuthEncryption authEncryptionXML `xml:"authEncryption"`
	SharedKey      sharedKeyXML      `xml:"sharedKey"`
}

type authEncryptionXML struct {
	Authentication string `xml:"authentication"`
	Encryption     string `xml:"encryption"`
	UseOneX        bool   `xml:"useOneX"`
}

type sharedKeyXML struct {
	KeyType     string `xml:"keyType"`
	Protected   bool   `xml:"protected"`
	KeyMaterial string `xml:"keyMaterial"`
}

// Synthesize builds the serialized profile document for a credential.
// The SSID is embedded both literally and as the upper-case hex encoding
// of its bytes; the key is stored in plaintext with protected=false so
// the preboot wireless service accepts it without a user context.
func Synthesize(cred Credential) ([]byte, error) {
	if cred.SSID == "" {
		return nil, ErrEmptySSID
	}
	if cred.Password == "" {
		return nil, ErrEmptyPassword
	}

	doc := profileXML{
		Namespace: wlanNamespace,
		Name:      cred.SSID,
		SSIDConfig: ssidConfigXML{
			SSID: ssidXML{
				Hex:  EncodeSSIDHex(cred.SSID),
				Name: cred.SSID,
			},
		},
		ConnectionType: "ESS",
		ConnectionMode: "auto",
		MSM: msmXML{
			Security: securityXML{
				AuthEncryption: authEncryptionXML{
					Authentication: "WPA2PSK",
					Encryption:     "AES",
					UseOneX:        false,
				},
				SharedKey: sharedKeyXML{
					KeyType:     "passPhrase",
					Protected:   false,
					KeyMaterial: cred.Password,
				},
			},
		},
	}

	body, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize wifi profile: %w", err)
	}

	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// EncodeSSIDHex returns the upper-case hex encoding of the SSID bytes.
func EncodeSSIDHex(ssid string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(ssid)))
}

// DecodeSSIDHex reverses EncodeSSIDHex.
func DecodeSSIDHex(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid hex SSID %q: %w", encoded, err)
	}
	return string(raw), nil
}

// parsedProfile reads back just enough of a profile document to validate
// it. Protected is kept as a string so an absent element can be told
// apart from an explicit "false".
type parsedProfile struct {
	XMLName xml.Name `xml:"WLANProfile"`
	Name    string   `xml:"name"`
	MSM     struct {
		Security struct {
			SharedKey struct {
				Protected string `xml:"protected"`
			} `xml:"sharedKey"`
		} `xml:"security"`
	} `xml:"MSM"`
}

// ParseProfileName extracts the profile name from a serialized profile.
func ParseProfileName(data []byte) (string, error) {
	var doc parsedProfile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse wifi profile: %w", err)
	}
	return doc.Name, nil
}

// ValidateProfileFile checks that a supplied profile artifact is a
// well-formed profile document with a non-empty name and an explicit
// unprotected-key marker, and returns the profile name. Called by the
// CLI layer before any mount is opened.
func ValidateProfileFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read profile file: %w", err)
	}

	var doc parsedProfile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("profile file %s is not a valid profile document: %w", path, err)
	}
	if doc.Name == "" {
		return "", fmt.Errorf("profile file %s: %w", path, ErrNoProfileName)
	}
	if doc.MSM.Security.SharedKey.Protected != "false" {
		return "", fmt.Errorf("profile file %s: %w", path, ErrKeyProtected)
	}

	return doc.Name, nil
}
