package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// AvatarURL returns the profile's avatar, falling back to a Gravatar
// derived from the email when no avatar has been uploaded.
func AvatarURL(avatarURL, email string, size int) string {
	if avatarURL != "" {
		return avatarURL
	}
	return GravatarURL(email, size)
}

// GravatarURL generates a Gravatar URL for the given email address.
// Default size is 200px if not specified.
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = 200
	}

	email = strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(email))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
