package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"thingpilot.io/iot/nbiot-gw/nbiot"
)

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  *nbiot.Modem
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /reboot", s.handleReboot)
	mux.HandleFunc("GET /psm", s.handlePSMQuery)
	mux.HandleFunc("POST /psm", s.handlePSMSet)
	mux.HandleFunc("GET /psm/timers", s.handleTimersQuery)
	mux.HandleFunc("POST /psm/timers", s.handleTimersSet)
	mux.HandleFunc("POST /coap/profile", s.handleCoapProfile)
	mux.HandleFunc("POST /coap", s.handleCoapRequest)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, err error, statusCode int) {
	type ErrorResponse struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	}
	resp := ErrorResponse{Message: err.Error(), Status: int(nbiot.StatusOf(err))}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// sendModemError maps a modem operation failure to an HTTP status: local
// validation failures are the client's fault, everything else means the
// modem side misbehaved.
func (s *Server) sendModemError(w http.ResponseWriter, err error) {
	switch nbiot.StatusOf(err) {
	case nbiot.StatusExceedsMaxValue, nbiot.StatusInvalidUnitValue:
		s.sendError(w, err, http.StatusBadRequest)
	case nbiot.StatusDriverUnknown:
		s.sendError(w, err, http.StatusServiceUnavailable)
	default:
		s.sendError(w, err, http.StatusBadGateway)
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Modem.ConnectionStatus(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query connection status", "error", err)
		s.sendModemError(w, err)
		return
	}

	s.sendJSON(w, map[string]any{
		"radio_connected": status.RadioConnected,
		"registration":    status.Registration.String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Modem.NUEStats(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query UE stats", "error", err)
		s.sendModemError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(stats))
}

func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	if err := s.Modem.Reboot(r.Context()); err != nil {
		s.Logger.Error("Failed to reboot modem", "error", err)
		s.sendModemError(w, err)
		return
	}

	s.Logger.Info("Modem rebooted")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePSMQuery(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.Modem.PowerSaveMode(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query PSM", "error", err)
		s.sendModemError(w, err)
		return
	}

	s.sendJSON(w, map[string]any{"enabled": enabled})
}

func (s *Server) handlePSMSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err, http.StatusBadRequest)
		return
	}

	var err error
	if req.Enabled {
		err = s.Modem.EnablePowerSaveMode(r.Context())
	} else {
		err = s.Modem.DisablePowerSaveMode(r.Context())
	}
	if err != nil {
		s.Logger.Error("Failed to set PSM", "error", err, "enabled", req.Enabled)
		s.sendModemError(w, err)
		return
	}

	s.Logger.Info("PSM updated", "enabled", req.Enabled)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleTimersQuery(w http.ResponseWriter, r *http.Request) {
	tauUnit, tauMultiples, err := s.Modem.TAUTimer(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query TAU timer", "error", err)
		s.sendModemError(w, err)
		return
	}
	activeUnit, activeMultiples, err := s.Modem.ActiveTime(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query active time", "error", err)
		s.sendModemError(w, err)
		return
	}

	s.sendJSON(w, map[string]any{
		"tau": map[string]any{
			"unit":      tauUnit.String(),
			"multiples": tauMultiples,
		},
		"active_time": map[string]any{
			"unit":      activeUnit.String(),
			"multiples": activeMultiples,
		},
	})
}

func (s *Server) handleTimersSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TAU *struct {
			UnitCode  uint8 `json:"unit_code"`
			Multiples uint8 `json:"multiples"`
		} `json:"tau"`
		ActiveTime *struct {
			UnitCode  uint8 `json:"unit_code"`
			Multiples uint8 `json:"multiples"`
		} `json:"active_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err, http.StatusBadRequest)
		return
	}

	if req.TAU != nil {
		err := s.Modem.SetTAUTimer(r.Context(), nbiot.T3412Unit(req.TAU.UnitCode), req.TAU.Multiples)
		if err != nil {
			s.Logger.Error("Failed to set TAU timer", "error", err)
			s.sendModemError(w, err)
			return
		}
	}
	if req.ActiveTime != nil {
		err := s.Modem.SetActiveTime(r.Context(), nbiot.T3324Unit(req.ActiveTime.UnitCode), req.ActiveTime.Multiples)
		if err != nil {
			s.Logger.Error("Failed to set active time", "error", err)
			s.sendModemError(w, err)
			return
		}
	}

	s.Logger.Info("PSM timers updated")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCoapProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IPv4 string `json:"ipv4"`
		Port uint16 `json:"port"`
		URI  string `json:"uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err, http.StatusBadRequest)
		return
	}

	if err := s.Modem.ConfigureCoAP(r.Context(), req.IPv4, req.Port, req.URI); err != nil {
		s.Logger.Error("Failed to configure CoAP profile", "error", err)
		s.sendModemError(w, err)
		return
	}

	s.Logger.Info("CoAP profile configured", "server", req.IPv4, "port", req.Port, "uri", req.URI)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCoapRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method        string `json:"method"`
		Payload       string `json:"payload"`
		ContentFormat int    `json:"content_format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err, http.StatusBadRequest)
		return
	}

	var (
		resp nbiot.CoapResponse
		err  error
	)
	ctx := r.Context()
	format := nbiot.ContentFormat(req.ContentFormat)

	switch req.Method {
	case "get":
		resp, err = s.Modem.CoapGet(ctx)
	case "delete":
		resp, err = s.Modem.CoapDelete(ctx)
	case "put":
		resp, err = s.Modem.CoapPut(ctx, []byte(req.Payload), format)
	case "post":
		resp, err = s.Modem.CoapPost(ctx, []byte(req.Payload), format)
	default:
		s.sendError(w, errUnknownCoapMethod(req.Method), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.Logger.Error("CoAP request failed", "error", err, "method", req.Method)
		s.sendModemError(w, err)
		return
	}

	s.Logger.Info("CoAP request completed", "method", req.Method, "code", resp.Code)
	s.sendJSON(w, map[string]any{
		"code":    resp.Code,
		"payload": string(resp.Payload),
	})
}

type errUnknownCoapMethod string

func (e errUnknownCoapMethod) Error() string {
	return "unknown CoAP method " + string(e)
}
