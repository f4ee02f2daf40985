package services

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrScreenNotFound     = errors.New("screen not found")
	ErrMediaNotFound      = errors.New("media not found")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrBroadcastNotFound  = errors.New("broadcast not found")
	ErrTaggingUnavailable = errors.New("tagging service unavailable")
)
