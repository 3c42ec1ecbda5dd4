package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Leganyst/slotswapper/internal/auth"
	"github.com/Leganyst/slotswapper/internal/calendar"
	"github.com/Leganyst/slotswapper/internal/lifecycle"
	"github.com/Leganyst/slotswapper/internal/model"
)

const maxBodyBytes = 1 << 20

type createEventRequest struct {
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type setStatusRequest struct {
	Status model.EventStatus `json:"status"`
}

type createSwapRequest struct {
	MySlotID    string `json:"mySlotId"`
	TheirSlotID string `json:"theirSlotId"`
}

type swapResponseRequest struct {
	Accept *bool `json:"accept"`
}

func (s *Server) handleListMyEvents(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	events, err := s.deps.Events.ListForOwner(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var body createEventRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := calendar.ParseTime(body.StartTime)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: startTime: %v", lifecycle.ErrValidation, err))
		return
	}
	end, err := calendar.ParseTime(body.EndTime)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: endTime: %v", lifecycle.ErrValidation, err))
		return
	}

	ev, err := s.deps.Events.CreateEvent(r.Context(), id.UserID, body.Title, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	eventID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body setStatusRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.deps.Events.SetAvailability(r.Context(), eventID, id.UserID, body.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(ev))
}

func (s *Server) handleSwappableSlots(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	events, err := s.deps.Events.ListSwappable(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(events)))

	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("pageSize") == "" {
		writeJSON(w, http.StatusOK, toEventDTOs(events))
		return
	}
	page, err := queryInt(q.Get("page"), "page")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	size, err := queryInt(q.Get("pageSize"), "pageSize")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p := calendar.Paginate(events, calendar.PageRequest{Page: page, Size: size})
	writeJSON(w, http.StatusOK, toEventDTOs(p.Items))
}

func (s *Server) handleCreateSwapRequest(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var body createSwapRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	mySlot, err := parseID(body.MySlotID, "mySlotId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	theirSlot, err := parseID(body.TheirSlotID, "theirSlotId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := s.deps.Swaps.CreateRequest(r.Context(), id.UserID, mySlot, theirSlot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSwapDTO(req))
}

func (s *Server) handleListSwapRequests(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	inbox, err := s.deps.Swaps.ListForUser(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inboxDTO{
		Incoming: toSwapDTOs(inbox.Incoming),
		Outgoing: toSwapDTOs(inbox.Outgoing),
	})
}

func (s *Server) handleSwapResponse(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	requestID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body swapResponseRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Accept == nil {
		s.writeError(w, r, fmt.Errorf("%w: accept is required", lifecycle.ErrValidation))
		return
	}

	req, err := s.deps.Swaps.Respond(r.Context(), requestID, id.UserID, *body.Accept)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]swapDTO{"swap": toSwapDTO(req)})
}

func (s *Server) handleSwapHistory(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	limit, err := queryInt(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logs, err := s.deps.History.HistoryForUser(r.Context(), id.UserID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTOs(logs))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", lifecycle.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return parseID(r.PathValue("id"), "id")
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", lifecycle.ErrValidation, field)
	}
	return id, nil
}

// queryInt: пустое значение даёт 0, сервис подставит дефолт.
func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", lifecycle.ErrValidation, field)
	}
	return n, nil
}
