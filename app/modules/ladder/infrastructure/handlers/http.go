package ladderhandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 64 << 10

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createChallengeBody struct {
	ChallengedID uuid.UUID `json:"challenged_id"`
	Message      string    `json:"message"`
	ProposedDate string    `json:"proposed_date"`
}

type respondBody struct {
	Action ladderservice.RespondAction `json:"action"`
}

type submitMatchBody struct {
	WinnerID        uuid.UUID           `json:"winner_id"`
	Score           string              `json:"score"`
	Sets            []ladderdb.SetScore `json:"sets"`
	MatchDate       *time.Time          `json:"match_date"`
	Location        string              `json:"location"`
	DurationMinutes int                 `json:"duration_minutes"`
	Notes           string              `json:"notes"`
}

type validateBody struct {
	Action ladderservice.ValidateAction `json:"action"`
	Reason string                       `json:"reason"`
}

type regionsResponse struct {
	Regions []string `json:"regions"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &ladderservice.ValidationError{Message: "request body is required"}
		}
		return &ladderservice.ValidationError{Message: fmt.Sprintf("malformed JSON body: %v", err)}
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &ladderservice.ValidationError{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ladderservice.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

func category(r *http.Request) (ladderdomain.Category, error) {
	c, err := ladderdomain.ParseCategory(chi.URLParam(r, "category"), r.URL.Query().Get("value"))
	if err != nil {
		return nil, &ladderservice.ValidationError{Field: "category", Message: err.Error()}
	}
	return c, nil
}

// caller returns the authenticated player, answering 401 when there is none.
func (h *LadderHandlers) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := PlayerFromContext(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	}
	return id, ok
}

func (h *LadderHandlers) HandleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleRegisterPlayer")
	defer span.End()

	var req ladderservice.RegisterPlayerRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	player, err := h.service.RegisterPlayer(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (h *LadderHandlers) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleGetPlayer")
	defer span.End()

	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	player, err := h.service.GetPlayer(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *LadderHandlers) HandlePointsHistoryChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandlePointsHistoryChart")
	defer span.End()

	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	png, err := h.service.PointsHistoryChart(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// HandleEvaluateChallenge answers whether the caller may challenge {playerID}.
// A denial is a 200 with allowed=false.
func (h *LadderHandlers) HandleEvaluateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleEvaluateChallenge")
	defer span.End()

	challengerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	challengedID, err := pathID(r, "playerID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	view, err := h.service.EvaluateChallenge(ctx, challengerID, challengedID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *LadderHandlers) HandleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleCreateChallenge")
	defer span.End()

	challengerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body createChallengeBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	challenge, err := h.service.CreateChallenge(ctx, ladderservice.CreateChallengeRequest{
		ChallengerID: challengerID,
		ChallengedID: body.ChallengedID,
		Message:      body.Message,
		ProposedDate: body.ProposedDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, challenge)
}

func (h *LadderHandlers) HandleListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleListChallenges")
	defer span.End()

	playerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	statuses, err := ladderservice.ParseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	challenges, err := h.service.ListChallenges(ctx, playerID, statuses)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if challenges == nil {
		challenges = []ladderservice.ChallengeView{}
	}
	writeJSON(w, http.StatusOK, challenges)
}

func (h *LadderHandlers) HandleRespondToChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleRespondToChallenge")
	defer span.End()

	responderID, ok := h.caller(w, r)
	if !ok {
		return
	}
	challengeID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body respondBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.RespondToChallenge(ctx, challengeID, responderID, body.Action)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LadderHandlers) HandleSubmitMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleSubmitMatchResult")
	defer span.End()

	reporterID, ok := h.caller(w, r)
	if !ok {
		return
	}
	challengeID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body submitMatchBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	match, err := h.service.SubmitMatchResult(ctx, ladderservice.SubmitMatchRequest{
		ChallengeID:     challengeID,
		ReporterID:      reporterID,
		WinnerID:        body.WinnerID,
		Score:           body.Score,
		Sets:            body.Sets,
		MatchDate:       body.MatchDate,
		Location:        body.Location,
		DurationMinutes: body.DurationMinutes,
		Notes:           body.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

func (h *LadderHandlers) HandleListPendingValidations(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleListPendingValidations")
	defer span.End()

	loserID, ok := h.caller(w, r)
	if !ok {
		return
	}
	matches, err := h.service.ListPendingValidations(ctx, loserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []ladderservice.MatchView{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (h *LadderHandlers) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleGetMatch")
	defer span.End()

	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	match, err := h.service.GetMatch(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *LadderHandlers) HandleValidateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleValidateMatch")
	defer span.End()

	loserID, ok := h.caller(w, r)
	if !ok {
		return
	}
	matchID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body validateBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	match, err := h.service.ValidateMatch(ctx, matchID, loserID, body.Action, body.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *LadderHandlers) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleGetRanking")
	defer span.End()

	c, err := category(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.service.GetRanking(ctx, c, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *LadderHandlers) HandleGetCategoryStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleGetCategoryStats")
	defer span.End()

	c, err := category(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.service.GetCategoryStats(ctx, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *LadderHandlers) HandleListRegions(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleListRegions")
	defer span.End()

	regions, err := h.service.ListRegions(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regionsResponse{Regions: regions})
}

func (h *LadderHandlers) HandleExportRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LadderHandlers.HandleExportRanking")
	defer span.End()

	c, err := category(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	workbook, err := h.service.ExportRankingXLSX(ctx, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filename := "ranking-" + string(c.Kind())
	if c.Value() != "" {
		filename += "-" + c.Value()
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
	_, _ = w.Write(workbook)
}
