package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sakif/maxsports/internal/apperror"
)

// errorBody is the shape of the remote API's error responses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doJSON executes an HTTP request, marshalling body as JSON and unmarshalling
// the response into out. Pass nil body for bodiless requests and nil out to
// discard the response.
//
// Failures come back as domain errors: a transport failure or a non-2xx
// status is apperror.ErrNetwork (with the body's "error" or "message" when
// there is one), a 401 is apperror.ErrUnauthorized.
func doJSON(ctx context.Context, client *http.Client, method, url string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("catalog: encoding request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("catalog: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &apperror.AppError{
			Err:     apperror.ErrNetwork,
			Message: "could not reach the exercise service: " + err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := statusMessage(resp)
		if resp.StatusCode == http.StatusUnauthorized {
			return apperror.Unauthorized(msg)
		}
		return apperror.Network(msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperror.Network("invalid response from the exercise service: " + err.Error())
		}
	}
	return nil
}

// statusMessage extracts the error text of a failed response, falling back
// to "HTTP <status>".
func statusMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var e errorBody
	if json.Unmarshal(raw, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return "HTTP " + strconv.Itoa(resp.StatusCode)
}
