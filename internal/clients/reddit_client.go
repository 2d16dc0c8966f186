package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/sentai/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"

	moreChildrenChunk = 100
	maxMoreRounds     = 50
	noPostContent     = "No text content available."
)

var (
	redditClientInstance *RedditClient
	redditClientOnce     sync.Once

	postIDPattern = regexp.MustCompile(`/comments/([a-z0-9]+)`)
	bareIDPattern = regexp.MustCompile(`^(?:t3_)?([a-z0-9]+)$`)
)

type RedditClient struct {
	Config  *clientcredentials.Config
	Client  *http.Client
	BaseURL string
	limiter *rate.Limiter
	mu      sync.Mutex
}

// GetRedditClient builds the process wide client on first use.
func GetRedditClient(clientID, clientSecret string, requestsPerMinute int) *RedditClient {
	redditClientOnce.Do(func() {
		oauthConf := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     REDDIT_AUTH_URL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}

		redditClientInstance = NewRedditClient(oauthConf.Client(context.Background()), REDDIT_API_URL, requestsPerMinute)
		redditClientInstance.Config = oauthConf
	})

	return redditClientInstance
}

func NewRedditClient(httpClient *http.Client, baseURL string, requestsPerMinute int) *RedditClient {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &RedditClient{
		Client:  httpClient,
		BaseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (rc *RedditClient) RefreshClient() {
	if rc.Config == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.Client = rc.Config.Client(context.Background())
}

func (rc *RedditClient) httpClient() *http.Client {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.Client
}

// ParsePostID accepts a full post URL, a t3_ fullname or a bare id.
func ParsePostID(postURL string) (string, error) {
	if m := postIDPattern.FindStringSubmatch(postURL); m != nil {
		return m[1], nil
	}
	if m := bareIDPattern.FindStringSubmatch(strings.TrimSpace(postURL)); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("[RedditClient] cannot find a post id in %q", postURL)
}

// FetchPostComments returns the post details and every comment of the post
// as one flat list. The tree is walked breadth first and "load more" stubs
// are expanded through /api/morechildren until none remain.
func (rc *RedditClient) FetchPostComments(ctx context.Context, postURL string) (models.PostDetails, []models.Comment, error) {
	var details models.PostDetails

	postID, err := ParsePostID(postURL)
	if err != nil {
		return details, nil, err
	}

	query := url.Values{}
	query.Set("limit", "500")
	query.Set("raw_json", "1")

	body, err := rc.get(ctx, fmt.Sprintf("%s/comments/%s", rc.BaseURL, postID), query)
	if err != nil {
		return details, nil, err
	}

	var listings []models.RedditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return details, nil, fmt.Errorf("[RedditClient] Failed to decode comments response: %w", err)
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return details, nil, fmt.Errorf("[RedditClient] unexpected comments response for post %s", postID)
	}

	var post models.RedditPostData
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return details, nil, fmt.Errorf("[RedditClient] Failed to decode post: %w", err)
	}
	details = toPostDetails(post)

	comments, more, err := flattenThings(listings[1].Data.Children)
	if err != nil {
		return details, nil, err
	}

	linkID := "t3_" + postID
	for round := 0; len(more) > 0 && round < maxMoreRounds; round++ {
		var pending []string
		for start := 0; start < len(more); start += moreChildrenChunk {
			end := min(start+moreChildrenChunk, len(more))
			things, err := rc.moreChildren(ctx, linkID, more[start:end])
			if err != nil {
				return details, nil, err
			}

			expanded, nested, err := flattenThings(things)
			if err != nil {
				return details, nil, err
			}
			comments = append(comments, expanded...)
			pending = append(pending, nested...)
		}
		more = pending
	}
	if len(more) > 0 {
		slog.Warn("[RedditClient] Gave up expanding comment stubs",
			slog.String("post_id", postID),
			slog.Int("remaining", len(more)))
	}

	slog.Info("[RedditClient] Fetched post comments",
		slog.String("post_id", postID),
		slog.Int("count", len(comments)))

	return details, comments, nil
}

func (rc *RedditClient) moreChildren(ctx context.Context, linkID string, children []string) ([]models.RedditThing, error) {
	query := url.Values{}
	query.Set("api_type", "json")
	query.Set("link_id", linkID)
	query.Set("children", strings.Join(children, ","))
	query.Set("raw_json", "1")

	body, err := rc.get(ctx, rc.BaseURL+"/api/morechildren", query)
	if err != nil {
		return nil, err
	}

	var resp models.RedditMoreChildrenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to decode morechildren response: %w", err)
	}
	if len(resp.JSON.Errors) > 0 {
		return nil, fmt.Errorf("[RedditClient] morechildren returned errors: %v", resp.JSON.Errors)
	}
	return resp.JSON.Data.Things, nil
}

func (rc *RedditClient) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	backoff := INITIAL_BACKOFF
	refreshed := false

	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		if err := rc.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("[RedditClient] Failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", USER_AGENT)

		resp, err := rc.httpClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("[RedditClient] Request failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("[RedditClient] Failed to read response: %w", readErr)
			}
			return body, nil
		case http.StatusUnauthorized:
			if refreshed || rc.Config == nil {
				return nil, errors.New("[RedditClient] unauthorized")
			}
			slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
			rc.RefreshClient()
			refreshed = true
		case http.StatusTooManyRequests:
			slog.Warn("[RedditClient] 429 Too Many Requests - Retrying with backoff",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, MAX_BACKOFF)
		default:
			return nil, fmt.Errorf("[RedditClient] unexpected status %d from %s", resp.StatusCode, endpoint)
		}
	}
	return nil, errors.New("[RedditClient] Max retries reached request failed")
}

// flattenThings walks a comment forest breadth first, the order reddit
// clients list comments in. It returns the comments and the ids of any
// "more" stubs it met.
func flattenThings(things []models.RedditThing) ([]models.Comment, []string, error) {
	var comments []models.Comment
	var more []string

	queue := append([]models.RedditThing(nil), things...)
	for len(queue) > 0 {
		thing := queue[0]
		queue = queue[1:]

		var data models.RedditCommentData
		if err := json.Unmarshal(thing.Data, &data); err != nil {
			return nil, nil, fmt.Errorf("[RedditClient] Failed to decode %s: %w", thing.Kind, err)
		}

		switch thing.Kind {
		case "more":
			more = append(more, data.Children...)
		case "t1":
			comments = append(comments, toComment(data))
			replies, err := decodeReplies(data.Replies)
			if err != nil {
				return nil, nil, err
			}
			queue = append(queue, replies...)
		}
	}
	return comments, more, nil
}

// decodeReplies handles reddit sending "" instead of a listing when a
// comment has no replies.
func decodeReplies(raw json.RawMessage) ([]models.RedditThing, error) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	var listing models.RedditListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to decode replies: %w", err)
	}
	return listing.Data.Children, nil
}

func toComment(data models.RedditCommentData) models.Comment {
	comment := models.Comment{
		ID:        data.ID,
		Body:      data.Body,
		CreatedAt: fromUnix(data.CreatedUTC),
		ParentID:  stripFullnamePrefix(data.ParentID),
	}
	if data.Author != "" && data.Author != "[deleted]" {
		author := data.Author
		comment.Author = &author
	}
	return comment
}

func toPostDetails(post models.RedditPostData) models.PostDetails {
	details := models.PostDetails{
		ID:        post.ID,
		Title:     post.Title,
		Author:    post.Author,
		CreatedAt: fromUnix(post.CreatedUTC),
		Content:   post.Selftext,
	}
	if details.Author == "" || details.Author == "[deleted]" {
		details.Author = models.UnknownAuthor
	}
	if details.Content == "" {
		details.Content = noPostContent
	}

	switch {
	case post.IsVideo && post.Media != nil && post.Media.RedditVideo != nil:
		details.MediaURL = post.Media.RedditVideo.FallbackURL
	case len(post.MediaMetadata) > 0:
		details.MediaURL = firstGalleryImage(post)
	}
	return details
}

func firstGalleryImage(post models.RedditPostData) string {
	if post.GalleryData != nil {
		for _, item := range post.GalleryData.Items {
			if meta, ok := post.MediaMetadata[item.MediaID]; ok && meta.S.U != "" {
				return meta.S.U
			}
		}
	}
	for _, meta := range post.MediaMetadata {
		if meta.S.U != "" {
			return meta.S.U
		}
	}
	return ""
}

func stripFullnamePrefix(fullname string) string {
	if i := strings.IndexByte(fullname, '_'); i == 2 {
		return fullname[i+1:]
	}
	return fullname
}

func fromUnix(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
