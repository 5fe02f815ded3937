package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
)

// ErrHashMismatch is returned when the payload's integrity hash does not
// match the value recomputed from the remaining fields.
var ErrHashMismatch = errors.New("hash is not valid")

// PhotoPlaceholder replaces a photo_url that fails validation. The login
// still succeeds in that case.
const PhotoPlaceholder = "/user/photo"

// LoginPayload carries the fields the Telegram Login Widget posts after a
// user authenticates with Telegram. Field names are fixed by the widget.
type LoginPayload struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// Identity is a LoginPayload that passed verification, with the hash
// stripped and the photo URL sanitized. This is what gets persisted.
type Identity struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
	PhotoURL   string
	AuthDate   int64
}

// Verifier checks Telegram login payloads against the bot token shared
// with Telegram. It performs no I/O.
type Verifier struct {
	secretKey []byte
}

// NewVerifier derives the HMAC key from the bot token, per the Telegram
// Login Widget scheme: key = SHA256(bot_token).
func NewVerifier(botToken string) *Verifier {
	key := sha256.Sum256([]byte(botToken))
	return &Verifier{secretKey: key[:]}
}

// Verify recomputes the payload's integrity hash and, on match, returns the
// sanitized identity. Any tampered field changes the data-check-string and
// fails the comparison. An invalid photo URL is not fatal: it is replaced
// with PhotoPlaceholder and verification continues.
func (v *Verifier) Verify(p LoginPayload) (Identity, error) {
	if p.Hash == "" {
		return Identity{}, ErrHashMismatch
	}

	expected := v.computeHash(p)
	got, err := hex.DecodeString(p.Hash)
	if err != nil || !hmac.Equal(expected, got) {
		return Identity{}, ErrHashMismatch
	}

	photo := p.PhotoURL
	if !validPhotoURL(photo) {
		photo = PhotoPlaceholder
	}

	return Identity{
		TelegramID: p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Username:   p.Username,
		PhotoURL:   photo,
		AuthDate:   p.AuthDate,
	}, nil
}

// computeHash builds the data-check-string (all transmitted fields except
// hash, as "key=value" pairs sorted by key and joined with newlines) and
// returns its HMAC-SHA256 digest under the derived key.
func (v *Verifier) computeHash(p LoginPayload) []byte {
	pairs := []string{
		"auth_date=" + strconv.FormatInt(p.AuthDate, 10),
		"first_name=" + p.FirstName,
		"id=" + strconv.FormatInt(p.ID, 10),
	}
	// Optional fields are part of the string only when Telegram sent them.
	if p.LastName != "" {
		pairs = append(pairs, "last_name="+p.LastName)
	}
	if p.PhotoURL != "" {
		pairs = append(pairs, "photo_url="+p.PhotoURL)
	}
	if p.Username != "" {
		pairs = append(pairs, "username="+p.Username)
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return mac.Sum(nil)
}

// imageExtensions accepted for profile photo references.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// validPhotoURL reports whether raw is an absolute https URL pointing at an
// image resource.
func validPhotoURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return imageExtensions[ext]
}

// Validate checks the payload carries every required field before the hash
// is even recomputed. It reports the first missing field.
func (p LoginPayload) Validate() error {
	switch {
	case p.ID == 0:
		return fmt.Errorf("missing required field: id")
	case p.FirstName == "":
		return fmt.Errorf("missing required field: first_name")
	case p.AuthDate == 0:
		return fmt.Errorf("missing required field: auth_date")
	case p.Hash == "":
		return fmt.Errorf("missing required field: hash")
	}
	return nil
}
