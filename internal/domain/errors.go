package domain

import "errors"

// Input validation errors
var (
	ErrCaptionRequired = errors.New("caption is required")
	ErrCaptionTooLong  = errors.New("caption is too long")
	ErrContentRequired = errors.New("comment content is required")
	ErrContentTooLong  = errors.New("comment content is too long")
	ErrNotAnImage      = errors.New("uploaded file is not an image")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)
