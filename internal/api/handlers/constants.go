package handlers

import "time"

const (
	// OAuth providers
	providerGoogle = "google"
	providerGitHub = "github"

	forwardedProtoHTTPS = "https"

	accessTokenDuration  = 1 * time.Hour
	refreshTokenDuration = 7 * 24 * time.Hour

	mimeTypeMP3 = "audio/mpeg"
)
