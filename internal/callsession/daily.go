package callsession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/study-rooms/internal/types"
)

const DefaultDailyAPIURL = "https://api.daily.co/v1"

type dailyRoom struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type dailyRoomProperties struct {
	EnableScreenshare bool `json:"enable_screenshare"`
	EnableChat        bool `json:"enable_chat"`
	EnableKnocking    bool `json:"enable_knocking"`
	StartVideoOff     bool `json:"start_video_off"`
	StartAudioOff     bool `json:"start_audio_off"`
}

type createDailyRoom struct {
	Name       string              `json:"name"`
	Privacy    string              `json:"privacy"`
	Properties dailyRoomProperties `json:"properties"`
}

// DailyGateway looks up or creates a Daily room per study room.
type DailyGateway struct {
	client   *http.Client
	apiURL   string
	apiKey   string
	domainId string
	log      *log.Logger
	now      func() time.Time
}

func NewDailyGateway(client *http.Client, apiURL, apiKey, domainId string, logger *log.Logger) *DailyGateway {
	if apiURL == "" {
		apiURL = DefaultDailyAPIURL
	}

	return &DailyGateway{
		client:   client,
		apiURL:   strings.TrimSuffix(apiURL, "/"),
		apiKey:   apiKey,
		domainId: domainId,
		log:      logger,
		now:      time.Now,
	}
}

func (g *DailyGateway) SessionFor(ctx context.Context, roomId, identity string) (*types.CallSession, error) {
	slug := Slug(roomId)

	room, found, err := g.getRoom(ctx, slug)
	if err != nil {
		return nil, err
	}
	if found {
		g.log.Printf("using existing Daily room: %s", room.URL)
	} else {
		room, err = g.createRoom(ctx, slug)
		if err != nil {
			return nil, err
		}
		g.log.Printf("created new Daily room: %s", room.URL)
	}

	session := &types.CallSession{
		DailyRoomUrl:   room.URL,
		CallSessionUrl: room.URL,
	}

	if g.domainId != "" {
		token, err := g.meetingToken(slug, identity)
		if err != nil {
			return nil, fmt.Errorf("sign meeting token: %w", err)
		}
		session.Token = token
	}

	return session, nil
}

// getRoom reports found=false for any non-2xx answer so the caller falls
// through to creating the room.
func (g *DailyGateway) getRoom(ctx context.Context, slug string) (*dailyRoom, bool, error) {
	req, err := g.newRequest(ctx, http.MethodGet, "/rooms/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("get daily room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	}

	var room dailyRoom
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, false, fmt.Errorf("decode daily room: %w", err)
	}

	return &room, true, nil
}

func (g *DailyGateway) createRoom(ctx context.Context, slug string) (*dailyRoom, error) {
	body, err := json.Marshal(createDailyRoom{
		Name:    slug,
		Privacy: "public",
		Properties: dailyRoomProperties{
			EnableScreenshare: true,
			EnableChat:        false,
			EnableKnocking:    false,
			StartVideoOff:     false,
			StartAudioOff:     false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode daily room: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPost, "/rooms", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create daily room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.log.Printf("failed to create Daily room: %s", msg)
		return nil, fmt.Errorf("failed to create room: %s", strings.TrimSpace(string(msg)))
	}

	var room dailyRoom
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("decode daily room: %w", err)
	}

	return &room, nil
}

func (g *DailyGateway) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	return req, nil
}

// meetingToken signs a self-signed Daily meeting token with the API key.
func (g *DailyGateway) meetingToken(slug, identity string) (string, error) {
	now := g.now()
	claims := jwt.MapClaims{
		"r":   slug,
		"d":   g.domainId,
		"iat": now.Unix(),
		"exp": now.Add(sessionTTL).Unix(),
	}
	if identity != "" {
		claims["u"] = identity
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(g.apiKey))
}
