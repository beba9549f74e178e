package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"calparse/internal/cache"
	"calparse/internal/repo"
	"calparse/internal/services/events"
	"calparse/internal/services/llm"
)

// GroupsHandler exposes the extraction pipeline and group persistence over HTTP.
type GroupsHandler struct {
	store     repo.EventStore
	cache     *cache.RedisCache
	extractor *events.Service
	ollama    *llm.OllamaClient
}

func NewGroupsHandler(store repo.EventStore, redisCache *cache.RedisCache, extractor *events.Service, ollama *llm.OllamaClient) *GroupsHandler {
	return &GroupsHandler{
		store:     store,
		cache:     redisCache,
		extractor: extractor,
		ollama:    ollama,
	}
}

func (h *GroupsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/groups", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
	r.Get("/api/v1/llm/health", h.LLMHealth)
}

type createGroupRequest struct {
	Text   string `json:"text"`
	UseLLM bool   `json:"use_llm"`
}

// Create runs the full pipeline on the submitted text and persists the
// resulting batch. A failed extraction still leaves a group record behind
// with its processing error recorded, and no events.
func (h *GroupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx := r.Context()

	group, err := h.store.CreateGroup(ctx, req.UseLLM)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create events group")
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	batch, err := h.extractor.Extract(ctx, req.Text, req.UseLLM)
	if err != nil {
		if failErr := h.store.FailGroup(ctx, group.ID, err.Error()); failErr != nil {
			log.Error().Err(failErr).Str("group_id", group.ID.String()).Msg("Failed to record processing error")
		}
		writeError(w, extractionStatus(err), err.Error())
		return
	}

	if len(batch.Events) == 0 {
		msg := "no events were parsed from the text"
		if failErr := h.store.FailGroup(ctx, group.ID, msg); failErr != nil {
			log.Error().Err(failErr).Str("group_id", group.ID.String()).Msg("Failed to record processing error")
		}
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if err := h.store.SaveBatch(ctx, group.ID, batch); err != nil {
		log.Error().Err(err).Str("group_id", group.ID.String()).Msg("Failed to persist batch")
		writeError(w, http.StatusInternalServerError, "failed to persist events")
		return
	}

	h.invalidateListCache(r)

	detail, err := h.store.GetGroup(ctx, group.ID)
	if err != nil {
		log.Error().Err(err).Str("group_id", group.ID.String()).Msg("Failed to load created group")
		writeError(w, http.StatusInternalServerError, "failed to load created group")
		return
	}

	log.Info().
		Str("group_id", group.ID.String()).
		Int("events", len(batch.Events)).
		Bool("multi_event", batch.IsMultiEvent).
		Msg("Events group created")

	writeJSON(w, http.StatusCreated, detail)
}

func (h *GroupsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	key := cache.GroupKey(id.String())
	if data, err := h.cache.Get(r.Context(), key); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	detail, err := h.store.GetGroup(r.Context(), id)
	if errors.Is(err, repo.ErrGroupNotFound) {
		writeError(w, http.StatusNotFound, "events group not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("group_id", id.String()).Msg("Failed to fetch group")
		writeError(w, http.StatusInternalServerError, "failed to fetch group")
		return
	}

	if data, err := json.Marshal(detail); err == nil {
		h.cache.Set(r.Context(), key, data, cache.GroupTTL)
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *GroupsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	key := cache.GroupListKey(limit)
	if data, err := h.cache.Get(r.Context(), key); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	groups, err := h.store.ListGroups(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list groups")
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	if groups == nil {
		groups = []repo.Group{}
	}

	if data, err := json.Marshal(groups); err == nil {
		h.cache.Set(r.Context(), key, data, cache.GroupListTTL)
	}

	writeJSON(w, http.StatusOK, groups)
}

func (h *GroupsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	if err := h.store.DeleteGroup(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrGroupNotFound) {
			writeError(w, http.StatusNotFound, "events group not found")
			return
		}
		log.Error().Err(err).Str("group_id", id.String()).Msg("Failed to delete group")
		writeError(w, http.StatusInternalServerError, "failed to delete group")
		return
	}

	h.cache.Del(r.Context(), cache.GroupKey(id.String()))
	h.invalidateListCache(r)

	w.WriteHeader(http.StatusNoContent)
}

type llmHealthResponse struct {
	OllamaConnected bool     `json:"ollama_connected"`
	AvailableModels []string `json:"available_models"`
}

// LLMHealth probes the local inference server: connectivity and model list
// are independent best-effort calls, so they run concurrently.
func (h *GroupsHandler) LLMHealth(w http.ResponseWriter, r *http.Request) {
	var resp llmHealthResponse

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		resp.OllamaConnected = h.ollama.CheckConnectivity(ctx)
		return nil
	})
	g.Go(func() error {
		resp.AvailableModels = h.ollama.ListModels(ctx)
		return nil
	})
	g.Wait()

	if resp.AvailableModels == nil {
		resp.AvailableModels = []string{}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *GroupsHandler) invalidateListCache(r *http.Request) {
	// Only the default listing is cached; parameterized listings expire on
	// their own short TTL.
	h.cache.Del(r.Context(), cache.GroupListKey(50))
}

// extractionStatus maps pipeline error kinds to HTTP statuses. Anything the
// caller could fix by rephrasing is a 422; infrastructure trouble is a 502.
func extractionStatus(err error) int {
	// Both-providers-failed is checked first: its primary cause may itself be
	// a malformed response, but the request as a whole hit infrastructure.
	var extractionErr *events.ExtractionError
	if errors.As(err, &extractionErr) {
		return http.StatusBadGateway
	}

	var validationErr *events.ValidationError
	var malformedErr *llm.MalformedResponseError
	if errors.As(err, &validationErr) || errors.As(err, &malformedErr) {
		return http.StatusUnprocessableEntity
	}

	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
		},
	})
}
