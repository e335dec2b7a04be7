package authflow_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-authflow"
	"github.com/goliatone/go-authflow/security"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOAuthControllerBeginRedirects(t *testing.T) {
	o := newTestOrchestrator(newTestClock(),
		authflow.WithFederatedProvider(&stubFederated{name: "google", available: true}),
	)
	defer o.Close()

	controller := authflow.NewOAuthController(o, authflow.OAuthControllerConfig{},
		authflow.WithControllerLogger(quietLogger{}),
	)

	ctx := router.NewMockContext()
	ctx.ParamsM["provider"] = "google"
	ctx.On("Context").Return(context.Background())

	var redirectURL string
	ctx.On("Redirect", mock.Anything, []int{http.StatusTemporaryRedirect}).Run(func(args mock.Arguments) {
		redirectURL = args.String(0)
	}).Return(nil)

	require.NoError(t, controller.Begin(ctx))
	require.True(t, strings.HasPrefix(redirectURL, "https://auth.example/google?state=google_"))
	require.Equal(t, 1, o.PendingFederatedAttempts())
}

func TestOAuthControllerCallbackSetsSessionCookie(t *testing.T) {
	clock := newTestClock()
	google := &stubFederated{name: "google", available: true, identity: authflow.Identity{ID: "g-1"}}
	o := newTestOrchestrator(clock, authflow.WithFederatedProvider(google))
	defer o.Close()

	redirect, err := o.SignInWithFederated(context.Background(), "google")
	require.NoError(t, err)

	codec := security.NewSessionCodec([]byte("test-signing-key"), "authflow",
		security.WithSessionCodecClock(clock.Now),
	)
	controller := authflow.NewOAuthController(o, authflow.OAuthControllerConfig{
		SuccessRedirect: "/dashboard",
		CookieName:      "session",
		CookieHTTPOnly:  true,
		CookieSecure:    true,
	}, authflow.WithSessionCodec(codec), authflow.WithControllerLogger(quietLogger{}))

	ctx := router.NewMockContext()
	ctx.QueriesM["code"] = "auth-code"
	ctx.QueriesM["state"] = redirect.State
	ctx.On("Context").Return(context.Background())

	var cookie *router.Cookie
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "session" && c.HTTPOnly && c.Secure
	})).Run(func(args mock.Arguments) {
		cookie = args.Get(0).(*router.Cookie)
	}).Return()
	ctx.On("Redirect", "/dashboard", []int{http.StatusTemporaryRedirect}).Return(nil)

	require.NoError(t, controller.Callback(ctx))
	require.NotNil(t, cookie)

	session, ok := codec.Decode(cookie.Value)
	require.True(t, ok)
	require.Equal(t, "g-1", session.OwnerID)
	require.Equal(t, clock.Now().Add(24*time.Hour).Unix(), session.ExpiresAt.Unix())
	require.Equal(t, []string{"auth-code"}, google.receivedCodes())
}

func TestOAuthControllerCallbackErrorRedirects(t *testing.T) {
	o := newTestOrchestrator(newTestClock(),
		authflow.WithFederatedProvider(&stubFederated{name: "google", available: true}),
	)
	defer o.Close()

	controller := authflow.NewOAuthController(o, authflow.OAuthControllerConfig{
		ErrorRedirect: "/login?next=%2Fhome",
	}, authflow.WithControllerLogger(quietLogger{}))

	ctx := router.NewMockContext()
	ctx.QueriesM["error"] = "access_denied"
	ctx.QueriesM["state"] = "google_abc"
	ctx.On("Context").Return(context.Background())

	var redirectURL string
	ctx.On("Redirect", mock.Anything, []int{http.StatusTemporaryRedirect}).Run(func(args mock.Arguments) {
		redirectURL = args.String(0)
	}).Return(nil)

	require.NoError(t, controller.Callback(ctx))

	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	require.Equal(t, "/login", parsed.Path)
	require.Equal(t, "/home", parsed.Query().Get("next"))
	require.Equal(t, strings.ToLower(authflow.TextCodeOAuthCallback), parsed.Query().Get("error"))
}

func TestOAuthControllerCustomErrorHandler(t *testing.T) {
	o := newTestOrchestrator(newTestClock())
	defer o.Close()

	var handled error
	controller := authflow.NewOAuthController(o, authflow.OAuthControllerConfig{
		ErrorHandler: func(ctx router.Context, err error) error {
			handled = err
			return nil
		},
	})

	ctx := router.NewMockContext()
	ctx.ParamsM["provider"] = "teams"
	ctx.On("Context").Return(context.Background())

	require.NoError(t, controller.Begin(ctx))
	require.True(t, authflow.HasTextCode(handled, authflow.TextCodeProviderUnavailable))
}
