package data

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func TestIsGoneError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		gone bool
	}{
		{"not found", restError(http.StatusNotFound), true},
		{"forbidden", restError(http.StatusForbidden), true},
		{"wrapped not found", fmt.Errorf("guild: %w", restError(http.StatusNotFound)), true},
		{"rate limited", restError(http.StatusTooManyRequests), false},
		{"server error", restError(http.StatusBadGateway), false},
		{"no response", &discordgo.RESTError{}, false},
		{"timeout", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isGoneError(tt.err); got != tt.gone {
				t.Errorf("Expected %v, got %v", tt.gone, got)
			}
		})
	}
}
