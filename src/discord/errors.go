package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// RESTCode returns the Discord JSON error code carried by err, or 0.
func RESTCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code
	}
	return 0
}

// IsUnknownMessage reports a 10008 error, seen when deleting a message
// that is already gone.
func IsUnknownMessage(err error) bool {
	return RESTCode(err) == discordgo.ErrCodeUnknownMessage
}

// IsUnknownChannel reports a 10003 error.
func IsUnknownChannel(err error) bool {
	return RESTCode(err) == discordgo.ErrCodeUnknownChannel
}
