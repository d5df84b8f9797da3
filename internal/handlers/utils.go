package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Константы
const (
	defaultCacheTTL = 15 * time.Minute
)

// ErrorResponse представляет структуру ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSONResponse отправляет JSON ответ
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse отправляет ответ с ошибкой
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	writeJSONResponse(w, statusCode, response)
}

// extractIDFromPath извлекает строковый идентификатор из пути URL
func extractIDFromPath(path, prefix string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("invalid path format")
	}

	idStr := strings.TrimPrefix(path, prefix)

	// Убираем возможный суффикс (например, /status)
	parts := strings.Split(idStr, "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("missing ID in path")
	}

	return parts[0], nil
}

// parseQueryInt читает целочисленный query-параметр с дефолтом
func parseQueryInt(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(raw); err == nil {
		return value
	}
	return defaultValue
}
