// Package callsession issues room-scoped video call sessions from an external
// provider. It never touches the room or whiteboard stores.
package callsession

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/npezzotti/study-rooms/internal/config"
	"github.com/npezzotti/study-rooms/internal/types"
)

const (
	slugPrefix  = "collabstudy-"
	sessionTTL  = 24 * time.Hour
	httpTimeout = 10 * time.Second
)

// SetupURL is where operators can get provider credentials.
const SetupURL = "https://www.daily.co/"

// ErrUnavailable is returned when no provider credentials are configured.
// Callers should degrade to chat and presence only.
var ErrUnavailable = errors.New("video calling unavailable")

var slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)

type Gateway interface {
	// SessionFor returns a session for roomId. identity names the caller for
	// providers that issue per-participant tokens and may be empty.
	SessionFor(ctx context.Context, roomId, identity string) (*types.CallSession, error)
}

// Slug maps a room id onto the provider's room naming rules.
func Slug(roomId string) string {
	return slugInvalid.ReplaceAllString(strings.ToLower(slugPrefix+roomId), "-")
}

// FromConfig picks LiveKit when its credentials are set, then Daily, and
// otherwise a gateway that always reports ErrUnavailable.
func FromConfig(cfg *config.Config, client *http.Client, logger *log.Logger) Gateway {
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}

	switch {
	case cfg.LiveKit.URL != "" && cfg.LiveKit.APIKey != "" && cfg.LiveKit.APISecret != "":
		logger.Printf("video calling enabled with LiveKit at %s", cfg.LiveKit.URL)
		return NewLiveKitGateway(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)
	case cfg.Daily.APIKey != "":
		logger.Printf("video calling enabled with Daily at %s", cfg.Daily.APIURL)
		return NewDailyGateway(client, cfg.Daily.APIURL, cfg.Daily.APIKey, cfg.Daily.DomainId, logger)
	default:
		logger.Println("DAILY_API_KEY not set, video calling unavailable")
		logger.Println("to enable video calling:")
		logger.Printf("1. sign up for a free account at %s", SetupURL)
		logger.Println("2. get your API key from Developers > API Keys")
		logger.Println("3. set the DAILY_API_KEY environment variable")
		return Unavailable{}
	}
}

// Unavailable is the gateway used when no provider is configured.
type Unavailable struct{}

func (Unavailable) SessionFor(context.Context, string, string) (*types.CallSession, error) {
	return nil, ErrUnavailable
}
