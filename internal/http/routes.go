package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth          *service.AuthService
	Articles      *service.ArticleService
	Poems         *service.PoemService
	Issues        *service.IssueService
	Submissions   *service.SubmissionService
	Newsletter    *service.NewsletterService
	Notifications *service.NotificationService
	Users         *service.UserService

	CookieDomain string
	TokenMaxAge  time.Duration
	IsDev        bool
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		TokenMaxAge:  services.TokenMaxAge,
		IsDev:        services.IsDev,
		Logger:       services.Logger,
	}
	articleHandlers := &ArticleHandlers{Svc: services.Articles}
	poemHandlers := &PoemHandlers{Svc: services.Poems}
	issueHandlers := &IssueHandlers{Svc: services.Issues}
	submissionHandlers := &SubmissionHandlers{Svc: services.Submissions}
	newsletterHandlers := &NewsletterHandlers{Svc: services.Newsletter}
	notificationHandlers := &NotificationHandlers{Svc: services.Notifications}
	userHandlers := &UserHandlers{Svc: services.Users}

	registerAuthRoutes(mux, authHandlers)
	registerPublicRoutes(publicRouteHandlers{
		mux:         mux,
		auth:        services.Auth,
		articles:    articleHandlers,
		poems:       poemHandlers,
		issues:      issueHandlers,
		submissions: submissionHandlers,
		newsletter:  newsletterHandlers,
	})
	registerAdminRoutes(adminRouteHandlers{
		mux:           mux,
		auth:          services.Auth,
		articles:      articleHandlers,
		poems:         poemHandlers,
		issues:        issueHandlers,
		submissions:   submissionHandlers,
		newsletter:    newsletterHandlers,
		notifications: notificationHandlers,
		users:         userHandlers,
	})

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/session", h.Session)
	mux.HandleFunc("POST /api/auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.ResetPassword)
}

type publicRouteHandlers struct {
	mux         *http.ServeMux
	auth        Authenticator
	articles    *ArticleHandlers
	poems       *PoemHandlers
	issues      *IssueHandlers
	submissions *SubmissionHandlers
	newsletter  *NewsletterHandlers
}

func registerPublicRoutes(h publicRouteHandlers) {
	h.mux.HandleFunc("GET /api/articles", h.articles.ListPublished)
	h.mux.HandleFunc("GET /api/articles/{slug}", h.articles.GetPublished)
	h.mux.HandleFunc("GET /api/poems", h.poems.ListPublished)
	h.mux.HandleFunc("GET /api/poems/{slug}", h.poems.GetPublished)
	h.mux.HandleFunc("GET /api/issues", h.issues.ListPublished)
	h.mux.HandleFunc("GET /api/issues/{number}", h.issues.GetPublished)
	// Anonymous submissions are welcome, but a valid session pre-fills
	// submitter details; invalid tokens fall through to anonymous.
	h.mux.Handle("POST /api/submissions",
		OptionalAuth(h.auth)(http.HandlerFunc(h.submissions.Submit)))
	h.mux.Handle("POST /api/account/submissions",
		RequireCapability(h.auth, domainauth.CapCreateSubmissions)(http.HandlerFunc(h.submissions.SubmitOwn)))
	h.mux.HandleFunc("POST /api/newsletter/subscribe", h.newsletter.Subscribe)
	h.mux.HandleFunc("POST /api/newsletter/unsubscribe", h.newsletter.Unsubscribe)
}

type adminRouteHandlers struct {
	mux           *http.ServeMux
	auth          Authenticator
	articles      *ArticleHandlers
	poems         *PoemHandlers
	issues        *IssueHandlers
	submissions   *SubmissionHandlers
	newsletter    *NewsletterHandlers
	notifications *NotificationHandlers
	users         *UserHandlers
}

func registerAdminRoutes(h adminRouteHandlers) {
	manageContent := RequireCapability(h.auth, domainauth.CapManageContent)
	reviewSubs := RequireCapability(h.auth, domainauth.CapReviewSubmissions)
	viewNotifs := RequireCapability(h.auth, domainauth.CapViewNotifications)
	manageUsers := RequireCapability(h.auth, domainauth.CapManageUsers)
	adminArea := RequireCapability(h.auth, domainauth.CapAdminArea)

	handle := func(pattern string, mw func(http.Handler) http.Handler, fn http.HandlerFunc) {
		h.mux.Handle(pattern, mw(fn))
	}

	handle("GET /api/admin/articles", manageContent, h.articles.List)
	handle("POST /api/admin/articles", manageContent, h.articles.Create)
	handle("GET /api/admin/articles/{id}", manageContent, h.articles.Get)
	handle("PUT /api/admin/articles/{id}", manageContent, h.articles.Update)
	handle("POST /api/admin/articles/{id}/status", manageContent, h.articles.SetStatus)
	handle("DELETE /api/admin/articles/{id}", manageContent, h.articles.Delete)

	handle("GET /api/admin/poems", manageContent, h.poems.List)
	handle("POST /api/admin/poems", manageContent, h.poems.Create)
	handle("GET /api/admin/poems/{id}", manageContent, h.poems.Get)
	handle("PUT /api/admin/poems/{id}", manageContent, h.poems.Update)
	handle("POST /api/admin/poems/{id}/status", manageContent, h.poems.SetStatus)
	handle("DELETE /api/admin/poems/{id}", manageContent, h.poems.Delete)

	handle("GET /api/admin/issues", manageContent, h.issues.List)
	handle("POST /api/admin/issues", manageContent, h.issues.Create)
	handle("PUT /api/admin/issues/{id}", manageContent, h.issues.Update)
	handle("POST /api/admin/issues/{id}/published", manageContent, h.issues.SetPublished)
	handle("DELETE /api/admin/issues/{id}", manageContent, h.issues.Delete)

	handle("GET /api/admin/submissions", reviewSubs, h.submissions.List)
	handle("GET /api/admin/submissions/{id}", reviewSubs, h.submissions.Get)
	handle("POST /api/admin/submissions/{id}/review", reviewSubs, h.submissions.Review)
	handle("DELETE /api/admin/submissions/{id}", reviewSubs, h.submissions.Delete)

	handle("GET /api/admin/notifications", viewNotifs, h.notifications.Feed)

	handle("POST /api/admin/newsletter/broadcast", adminArea, h.newsletter.Broadcast)

	handle("GET /api/admin/users", manageUsers, h.users.List)
	handle("GET /api/admin/users/{id}", manageUsers, h.users.Get)
	handle("PATCH /api/admin/users/{id}", manageUsers, h.users.Update)
}
