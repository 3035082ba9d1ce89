package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/metrics"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

const (
	ActionGetPlaybackCache        = "getPlaybackCache"
	ActionClearPlaybackCache      = "clearPlaybackCache"
	ActionDeletePlaybackCacheItem = "deletePlaybackCacheItem"
	ActionGetExtensionStatus      = "getExtensionStatus"
	ActionSetExtensionStatus      = "setExtensionStatus"

	msgItemDeleted  = "item deleted"
	msgItemNotFound = "Item not found in cache."
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidRequest = errors.New("invalid request")
)

// Request est une union fermée: seules les variantes de ce package l'implémentent.
type Request interface {
	Action() string
	isRequest()
}

type GetPlaybackCache struct{}
type ClearPlaybackCache struct{}
type DeletePlaybackCacheItem struct{ ID string }
type GetExtensionStatus struct{}
type SetExtensionStatus struct{ IsActive bool }

func (GetPlaybackCache) Action() string        { return ActionGetPlaybackCache }
func (ClearPlaybackCache) Action() string      { return ActionClearPlaybackCache }
func (DeletePlaybackCacheItem) Action() string { return ActionDeletePlaybackCacheItem }
func (GetExtensionStatus) Action() string      { return ActionGetExtensionStatus }
func (SetExtensionStatus) Action() string      { return ActionSetExtensionStatus }

func (GetPlaybackCache) isRequest()        {}
func (ClearPlaybackCache) isRequest()      {}
func (DeletePlaybackCacheItem) isRequest() {}
func (GetExtensionStatus) isRequest()      {}
func (SetExtensionStatus) isRequest()      {}

type rawRequest struct {
	Action   string `json:"action"`
	ID       string `json:"id"`
	UUID     string `json:"uuid"`
	IsActive *bool  `json:"isActive"`
	Type     string `json:"type"`
}

// DecodeRequest parse un message JSON {"action": ...}.
// Le champ legacy "type":"GET_EXTENSION_STATUS" est accepté.
func DecodeRequest(b []byte) (Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	action := raw.Action
	if action == "" && raw.Type == "GET_EXTENSION_STATUS" {
		action = ActionGetExtensionStatus
	}

	switch action {
	case ActionGetPlaybackCache:
		return GetPlaybackCache{}, nil
	case ActionClearPlaybackCache:
		return ClearPlaybackCache{}, nil
	case ActionDeletePlaybackCacheItem:
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			id = strings.TrimSpace(raw.UUID)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: id is required", ErrInvalidRequest)
		}
		return DeletePlaybackCacheItem{ID: id}, nil
	case ActionGetExtensionStatus:
		return GetExtensionStatus{}, nil
	case ActionSetExtensionStatus:
		if raw.IsActive == nil {
			return nil, fmt.Errorf("%w: isActive is required", ErrInvalidRequest)
		}
		return SetExtensionStatus{IsActive: *raw.IsActive}, nil
	case "":
		return nil, fmt.Errorf("%w: action is required", ErrInvalidRequest)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// RecordDTO est la forme JSON d'une entrée du cache exposée aux consommateurs.
type RecordDTO struct {
	IsDRM       *bool               `json:"isDrm"`
	HLS         []string            `json:"hls"`
	DASH        []string            `json:"dash"`
	HLSVariants []domain.HLSVariant `json:"hlsVariants"`
	Title       string              `json:"title"`
	// Timestamp en millisecondes Unix.
	Timestamp int64              `json:"timestamp"`
	Error     *domain.EntryError `json:"error,omitempty"`
}

func NewRecordDTO(e domain.Entry) RecordDTO {
	return RecordDTO{
		IsDRM:       e.IsDRM,
		HLS:         e.HLS,
		DASH:        e.DASH,
		HLSVariants: e.HLSVariants,
		Title:       e.Title,
		Timestamp:   e.Timestamp.UnixMilli(),
		Error:       e.Error,
	}
}

// CachePair est sérialisée en tableau [id, record].
type CachePair struct {
	ID     string
	Record RecordDTO
}

func (p CachePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.ID, p.Record})
}

func (p *CachePair) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("cache pair: want 2 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &p.ID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &p.Record)
}

type CacheResponse struct {
	Cache []CachePair `json:"cache"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type StatusResponse struct {
	IsActive bool `json:"isActive"`
}

// Dispatcher sert le contrat de messages du popup/lecteur.
type Dispatcher struct {
	logger zerolog.Logger
	cache  *PlaybackCache
	gate   *ActivationGate
	bus    ports.EventBus
}

func NewDispatcher(logger zerolog.Logger, cache *PlaybackCache, gate *ActivationGate, bus ports.EventBus) *Dispatcher {
	return &Dispatcher{logger: logger, cache: cache, gate: gate, bus: bus}
}

// Dispatch exécute la requête et retourne la réponse à sérialiser telle quelle.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (any, error) {
	switch r := req.(type) {
	case GetPlaybackCache:
		return d.snapshot(), nil
	case ClearPlaybackCache:
		d.cache.Clear()
		metrics.SetCacheEntries(0)
		d.publish(ports.TopicCacheCleared, nil)
		return SuccessResponse{Success: true}, nil
	case DeletePlaybackCacheItem:
		ok := d.cache.Delete(r.ID)
		d.logger.Debug().Str("media_id", r.ID).Bool("deleted", ok).Msg("cache item delete")
		if !ok {
			return SuccessResponse{Success: false, Message: msgItemNotFound}, nil
		}
		metrics.SetCacheEntries(d.cache.Len())
		d.publish(ports.TopicCacheDeleted, map[string]string{"id": r.ID})
		return SuccessResponse{Success: true, Message: msgItemDeleted}, nil
	case GetExtensionStatus:
		return StatusResponse{IsActive: d.gate.IsActive()}, nil
	case SetExtensionStatus:
		active, err := d.gate.SetActive(ctx, r.IsActive)
		if err != nil {
			return nil, err
		}
		return StatusResponse{IsActive: active}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, req)
	}
}

func (d *Dispatcher) snapshot() CacheResponse {
	items := d.cache.Snapshot()
	out := CacheResponse{Cache: make([]CachePair, 0, len(items))}
	for _, it := range items {
		out.Cache = append(out.Cache, CachePair{ID: it.ID, Record: NewRecordDTO(it.Entry)})
	}
	return out
}

func (d *Dispatcher) publish(topic string, payload any) {
	if d.bus == nil {
		return
	}
	var b []byte
	if payload != nil {
		b, _ = json.Marshal(payload)
	}
	d.bus.Publish(topic, b)
}
