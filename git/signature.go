package git

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// NewSignature builds a signature from a Unix timestamp and a UTC offset
// in minutes, the shape git stores in objects.
func NewSignature(name, email string, seconds int64, offsetMinutes int) Signature {
	return Signature{
		Name:  name,
		Email: email,
		When:  time.Unix(seconds, 0).In(fixedZone(offsetMinutes)),
	}
}

// Seconds returns the signature time as seconds since the Unix epoch.
func (s Signature) Seconds() float64 {
	return float64(s.When.Unix())
}

// OffsetMinutes returns the UTC offset of the signature time in minutes.
func (s Signature) OffsetMinutes() float64 {
	_, offset := s.When.Zone()
	return float64(offset / 60)
}

// signatureDoc is the encoded form of a Signature.
type signatureDoc struct {
	Name   string  `json:"name" yaml:"name"`
	Email  string  `json:"email" yaml:"email"`
	Time   float64 `json:"time" yaml:"time"`
	Offset float64 `json:"offset" yaml:"offset"`
}

func (s Signature) doc() signatureDoc {
	return signatureDoc{Name: s.Name, Email: s.Email, Time: s.Seconds(), Offset: s.OffsetMinutes()}
}

func (d signatureDoc) signature() Signature {
	return NewSignature(d.Name, d.Email, int64(math.Floor(d.Time)), int(d.Offset))
}

// MarshalJSON implements json.Marshaler.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.doc())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var d signatureDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*s = d.signature()
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Signature) MarshalYAML() (any, error) {
	return s.doc(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Signature) UnmarshalYAML(node *yaml.Node) error {
	var d signatureDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	*s = d.signature()
	return nil
}

// String renders the signature the way git writes it in object headers.
func (s Signature) String() string {
	sig := s.toObject()
	return fmt.Sprintf("%s %d %s", sig.String(), s.When.Unix(), s.When.Format("-0700"))
}

// validate checks that s can be written into a commit header.
func (s Signature) validate(role string) error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return invalidInput("%s name is required", role)
	case strings.TrimSpace(s.Email) == "":
		return invalidInput("%s email is required", role)
	case strings.ContainsAny(s.Name, "<>\n"):
		return invalidInput("%s name contains '<', '>' or a newline", role)
	case strings.ContainsAny(s.Email, "<>\n"):
		return invalidInput("%s email contains '<', '>' or a newline", role)
	case s.When.IsZero():
		return invalidInput("%s time is required", role)
	}
	return nil
}

func (s Signature) toObject() object.Signature {
	return object.Signature{Name: s.Name, Email: s.Email, When: s.When}
}

func signatureFromObject(sig object.Signature) Signature {
	return Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}

// fixedZone names offsets the way git prints them.
func fixedZone(offsetMinutes int) *time.Location {
	if offsetMinutes == 0 {
		return time.UTC
	}
	return time.FixedZone(time.Unix(0, 0).In(time.FixedZone("", offsetMinutes*60)).Format("-0700"), offsetMinutes*60)
}

// defaultSignature resolves user.name and user.email through the local and
// global configuration.
func (h *handle) defaultSignature() (*Signature, error) {
	cfg, err := h.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return nil, wrapError(err, "failed to read configuration")
	}

	name, email := cfg.User.Name, cfg.User.Email
	if name == "" || email == "" {
		return nil, platformerrors.New(platformerrors.CodeNotFound, "user.name and user.email must be configured")
	}

	return &Signature{Name: name, Email: email, When: time.Now()}, nil
}
