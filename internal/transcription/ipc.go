package transcription

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"
)

// ipcReadTimeout bounds one read attempt against the player's IPC
// socket, per §4.B.
const ipcReadTimeout = 3 * time.Second

// getStreamURLOverIPC opens its own connection to the player's socket
// path (never reaching into the player controller's state directly, per
// §5's "only reads the socket path string by value") and asks for the
// currently-open stream URL. Grounded on the same mpv JSON-IPC shape as
// internal/player/ipc.go, duplicated deliberately rather than shared:
// the transcription pipeline is an independent consumer of the socket,
// not a collaborator of the player package's internals.
func getStreamURLOverIPC(socketPath string) (string, error) {
	conn, err := net.DialTimeout("unix", socketPath, ipcReadTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIPCUnavailable, err)
	}
	defer conn.Close()

	req := struct {
		Command   []interface{} `json:"command"`
		RequestID int           `json:"request_id"`
	}{
		Command:   []interface{}{"get_property", "stream-open-filename"},
		RequestID: 1,
	}
	line, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal ipc request: %w", err)
	}
	if _, err := conn.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIPCUnavailable, err)
	}

	conn.SetReadDeadline(time.Now().Add(ipcReadTimeout))
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp struct {
			RequestID *int   `json:"request_id"`
			Error     string `json:"error"`
			Data      string `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue // asynchronous event line we don't understand: skip it
		}
		if resp.RequestID == nil || *resp.RequestID != 1 {
			continue // asynchronous event line, not our reply
		}
		if resp.Error != "success" {
			return "", fmt.Errorf("%w: mpv error %q", ErrIPCRejectedURL, resp.Error)
		}
		if !isResolvedStreamURL(resp.Data) {
			return "", fmt.Errorf("%w: %q", ErrIPCRejectedURL, resp.Data)
		}
		return resp.Data, nil
	}
	if err := scanner.Err(); err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return "", fmt.Errorf("%w", ErrIPCTimeout)
		}
		return "", fmt.Errorf("%w: %v", ErrIPCUnavailable, err)
	}
	return "", fmt.Errorf("%w: socket closed before a reply arrived", ErrIPCUnavailable)
}

// isResolvedStreamURL mirrors the acceptance predicate from §4.B: the
// value must look like a CDN URL, not the original watch-page URL.
func isResolvedStreamURL(s string) bool {
	if !strings.HasPrefix(s, "http") {
		return false
	}
	if strings.Contains(s, "youtube.com/watch") || strings.Contains(s, "youtu.be/") {
		return false
	}
	return true
}
