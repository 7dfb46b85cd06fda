package web

import (
	"fmt"
	"log/slog"
	"net/http"
)

const sessionIDKey = "sessionId"

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key '%s' not found", err.Key)
}

func (h *Handler) getSessionValue(r *http.Request, key string) (any, error) {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	value, ok := session.Values[key]
	if !ok {
		return nil, &SessionValueNotFoundError{Key: key}
	}

	return value, nil
}

func (h *Handler) setSessionValue(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	value any,
) error {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return fmt.Errorf("error getting session: %w", err)
	}

	session.Values[key] = value

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}

func (h *Handler) deleteSessionValue(w http.ResponseWriter, r *http.Request, key string) error {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return fmt.Errorf("error getting session: %w", err)
	}

	delete(session.Values, key)

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}

// addFlash queues a message for the next rendered page. Failures are logged only.
func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, message string) {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		slog.ErrorContext(r.Context(), "error getting session", "error", err)

		return
	}

	session.AddFlash(message)

	err = session.Save(r, w)
	if err != nil {
		slog.ErrorContext(r.Context(), "error saving session", "error", err)
	}
}

// popFlashes returns and clears queued messages. It must run before the response body is written.
func (h *Handler) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		slog.ErrorContext(r.Context(), "error getting session", "error", err)

		return nil
	}

	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}

	err = session.Save(r, w)
	if err != nil {
		slog.ErrorContext(r.Context(), "error saving session", "error", err)
	}

	messages := make([]string, 0, len(flashes))

	for _, flash := range flashes {
		if message, ok := flash.(string); ok {
			messages = append(messages, message)
		}
	}

	return messages
}
