package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/adpilot-backend/internal/platform/envutil"
	"github.com/yungbote/adpilot-backend/internal/platform/logger"
)

// RESTClient talks to the Google Ads reporting API over its REST transport.
// It implements SearchClient: capability rejections come back as
// InvalidFieldError so the executor can narrow the query.
type RESTClient struct {
	baseURL         string
	apiVersion      string
	developerToken  string
	accessToken     string
	loginCustomerID string
	httpClient      *http.Client
	log             *logger.Logger
}

func NewRESTClient(log *logger.Logger) *RESTClient {
	timeoutSec := envutil.Int("GOOGLE_ADS_TIMEOUT_SECONDS", 60)
	return &RESTClient{
		baseURL:         strings.TrimRight(envutil.Str("GOOGLE_ADS_BASE_URL", "https://googleads.googleapis.com"), "/"),
		apiVersion:      envutil.Str("GOOGLE_ADS_API_VERSION", "v19"),
		developerToken:  envutil.Str("GOOGLE_ADS_DEVELOPER_TOKEN", ""),
		accessToken:     envutil.Str("GOOGLE_ADS_ACCESS_TOKEN", ""),
		loginCustomerID: envutil.Str("GOOGLE_ADS_LOGIN_CUSTOMER_ID", ""),
		httpClient:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		log:             log.With("service", "GoogleAdsRESTClient"),
	}
}

type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Results       []map[string]any `json:"results"`
	NextPageToken string           `json:"nextPageToken"`
}

func (c *RESTClient) Search(ctx context.Context, customerID string, gaql string) ([]Row, error) {
	path := fmt.Sprintf("/%s/customers/%s/googleAds:search", c.apiVersion, normalizeCustomerID(customerID))

	var rows []Row
	pageToken := ""
	for {
		body, err := json.Marshal(searchRequest{Query: gaql, PageToken: pageToken})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("developer-token", c.developerToken)
		if c.loginCustomerID != "" {
			req.Header.Set("login-customer-id", normalizeCustomerID(c.loginCustomerID))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("google ads search: %w", err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("google ads search: read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, c.mapAPIError(resp.StatusCode, raw, gaql)
		}

		var page searchResponse
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("google ads search: decode response: %w", err)
		}
		for _, result := range page.Results {
			rows = append(rows, flattenResult(result))
		}
		if page.NextPageToken == "" {
			return rows, nil
		}
		pageToken = page.NextPageToken
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Errors []struct {
				Message   string `json:"message"`
				ErrorCode struct {
					QueryError string `json:"queryError"`
				} `json:"errorCode"`
				Location struct {
					FieldPathElements []struct {
						FieldName string `json:"fieldName"`
					} `json:"fieldPathElements"`
				} `json:"location"`
			} `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

// mapAPIError turns a BAD_REQUEST that rejects specific select fields into an
// InvalidFieldError. The structured error detail names the offending field
// when the API provides it; otherwise the message text is matched against the
// fields the query selected.
func (c *RESTClient) mapAPIError(status int, raw []byte, gaql string) error {
	var decoded apiError
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("google ads search failed (%d): %s", status, strings.TrimSpace(string(raw)))
	}

	if status == http.StatusBadRequest {
		var fields []string
		for _, detail := range decoded.Error.Details {
			for _, e := range detail.Errors {
				if !isFieldCapabilityError(e.ErrorCode.QueryError) {
					continue
				}
				if f := strings.Join(fieldPath(e.Location.FieldPathElements), "."); f != "" {
					fields = append(fields, f)
					continue
				}
				fields = append(fields, fieldsMentionedIn(e.Message, gaql)...)
			}
		}
		if len(fields) == 0 && isFieldCapabilityError(decoded.Error.Status) {
			fields = fieldsMentionedIn(decoded.Error.Message, gaql)
		}
		if len(fields) > 0 {
			return &InvalidFieldError{Fields: dedupeStrings(fields)}
		}
	}
	return fmt.Errorf("google ads search failed (%d %s): %s", status, decoded.Error.Status, decoded.Error.Message)
}

func isFieldCapabilityError(code string) bool {
	switch code {
	case "UNRECOGNIZED_FIELD", "UNEXPECTED_INPUT", "REQUESTED_METRICS_FOR_MANAGER",
		"PROHIBITED_FIELD_IN_SELECT_CLAUSE", "FIELD_CANNOT_BE_SELECTED":
		return true
	}
	return false
}

func fieldPath(elements []struct {
	FieldName string `json:"fieldName"`
}) []string {
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		if e.FieldName != "" {
			out = append(out, e.FieldName)
		}
	}
	return out
}

// fieldsMentionedIn returns the selected fields of gaql that the error
// message names verbatim.
func fieldsMentionedIn(message, gaql string) []string {
	selected := selectedFields(gaql)
	var out []string
	for _, f := range selected {
		if strings.Contains(message, f) {
			out = append(out, f)
		}
	}
	return out
}

func selectedFields(gaql string) []string {
	upper := strings.ToUpper(gaql)
	start := strings.Index(upper, "SELECT ")
	end := strings.Index(upper, " FROM ")
	if start != 0 || end < 0 {
		return nil
	}
	parts := strings.Split(gaql[len("SELECT "):end], ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if f := strings.TrimSpace(p); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func normalizeCustomerID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// flattenResult converts one nested REST result into a Row keyed by the GAQL
// field path: {"adGroupAd":{"ad":{"id":"1"}}} becomes ad_group_ad.ad.id.
func flattenResult(result map[string]any) Row {
	row := Row{}
	flattenInto(row, "", result)
	return row
}

func flattenInto(row Row, prefix string, value any) {
	nested, ok := value.(map[string]any)
	if !ok {
		row[prefix] = value
		return
	}
	for key, v := range nested {
		path := camelToSnake(key)
		if prefix != "" {
			path = prefix + "." + path
		}
		switch t := v.(type) {
		case map[string]any:
			flattenInto(row, path, t)
		default:
			row[path] = flattenLeaf(t)
		}
	}
}

// flattenLeaf keeps lists of objects usable by extracting their "text" field,
// which is how RSA headline and description assets come back.
func flattenLeaf(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			if text, ok := obj["text"].(string); ok {
				out = append(out, text)
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
