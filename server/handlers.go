package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hustle-genie/chat"
	"hustle-genie/goals"
	"hustle-genie/llm"
	"hustle-genie/store"
	"hustle-genie/utils"
	"hustle-genie/workspace"
)

type Handler struct {
	log      *utils.Logger
	store    *store.Store
	registry *workspace.Registry
	tokens   *Tokens
	now      func() time.Time
}

func NewHandler(log *utils.Logger, st *store.Store, registry *workspace.Registry, tokens *Tokens) *Handler {
	return &Handler{
		log:      log.With("component", "server"),
		store:    st,
		registry: registry,
		tokens:   tokens,
		now:      time.Now,
	}
}

type userResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// ---- accounts ----

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := h.store.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, store.ErrInvalidEmail), errors.Is(err, store.ErrPasswordRequired):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	case errors.Is(err, store.ErrUserExists):
		RespondError(c, http.StatusConflict, "user_exists", err)
		return
	case err != nil:
		h.log.Error("registration failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", store.ErrPasswordRequired)
		return
	}
	user, err := h.store.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	if err != nil {
		h.log.Error("login failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *store.User) {
	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		h.log.Error("failed to sign token", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	c.JSON(status, authResponse{
		Token: token,
		User:  userResponse{Name: user.Name, Email: user.Email},
	})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.store.FindUser(c.Request.Context(), currentEmail(c))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, userResponse{Name: user.Name, Email: user.Email})
}

// ---- settings ----

func (h *Handler) GetSettings(c *gin.Context) {
	RespondOK(c, currentWorkspace(c).Settings())
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch workspace.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	settings, err := currentWorkspace(c).UpdateSettings(patch)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_settings", err)
		return
	}
	RespondOK(c, settings)
}

// ---- goals ----

type goalResponse struct {
	goals.Goal
	Progress float64 `json:"progress"`
}

func toGoalResponse(g goals.Goal) goalResponse {
	return goalResponse{Goal: g, Progress: g.Progress()}
}

func (h *Handler) ListGoals(c *gin.Context) {
	list := currentWorkspace(c).Goals.List()
	out := make([]goalResponse, 0, len(list))
	for _, g := range list {
		out = append(out, toGoalResponse(g))
	}
	RespondOK(c, gin.H{"goals": out})
}

type addGoalRequest struct {
	Title    string  `json:"title"`
	Goal     float64 `json:"goal"`
	ImageURL string  `json:"imageUrl"`
}

func (h *Handler) AddGoal(c *gin.Context) {
	var req addGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	g, err := currentWorkspace(c).Goals.Add(req.Title, req.Goal, req.ImageURL)
	if err != nil {
		h.goalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGoalResponse(g))
}

type progressRequest struct {
	Current float64 `json:"current"`
}

func (h *Handler) UpdateGoal(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	g, err := currentWorkspace(c).Goals.UpdateProgress(c.Param("title"), req.Current)
	if err != nil {
		h.goalError(c, err)
		return
	}
	RespondOK(c, toGoalResponse(g))
}

func (h *Handler) DeleteGoal(c *gin.Context) {
	if err := currentWorkspace(c).Goals.Delete(c.Param("title")); err != nil {
		h.goalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) goalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, goals.ErrDuplicateTitle):
		RespondError(c, http.StatusConflict, "duplicate_goal", err)
	case errors.Is(err, goals.ErrInvalidGoal):
		RespondError(c, http.StatusBadRequest, "invalid_goal", err)
	case errors.Is(err, goals.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

// ---- ideas and plans ----

func (h *Handler) GetView(c *gin.Context) {
	RespondOK(c, currentWorkspace(c).View.State())
}

func (h *Handler) SubmitWish(c *gin.Context) {
	form := llm.NewWishForm()
	if err := c.ShouldBindJSON(&form); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	w := currentWorkspace(c)
	if err := form.Validate(); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_wish", err)
		return
	}
	h.generation(c, w, w.View.SubmitWish(c.Request.Context(), form))
}

func (h *Handler) GetInspired(c *gin.Context) {
	w := currentWorkspace(c)
	h.generation(c, w, w.View.GetInspired(c.Request.Context()))
}

type planRequest struct {
	Idea llm.HustleIdea `json:"idea"`
}

func (h *Handler) GeneratePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Idea.Title == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("idea title is required"))
		return
	}
	w := currentWorkspace(c)
	h.generation(c, w, w.View.GeneratePlan(c.Request.Context(), req.Idea))
}

// generation reports a flow result; failures carry the user-facing text
// the view controller chose
func (h *Handler) generation(c *gin.Context, w *workspace.Workspace, err error) {
	state := w.View.State()
	if err != nil {
		h.log.Warn("generation failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, ErrorEnvelope{
			Error: APIError{Message: state.Error, Code: "generation_failed"},
		})
		return
	}
	RespondOK(c, state)
}

// ---- active conversation ----

func (h *Handler) GetChat(c *gin.Context) {
	RespondOK(c, currentWorkspace(c).Chat.Snapshot())
}

func (h *Handler) NewChat(c *gin.Context) {
	w := currentWorkspace(c)
	w.Chat.NewConversation()
	RespondOK(c, w.Chat.Snapshot())
}

type sendRequest struct {
	Text string    `json:"text"`
	Mode chat.Mode `json:"mode"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	switch req.Mode {
	case "":
		req.Mode = chat.ModeText
	case chat.ModeText, chat.ModeImage:
	default:
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("mode must be text or image"))
		return
	}
	// A dropped client must not cancel the generation: its result is
	// still committed to the conversation
	w := currentWorkspace(c)
	if err := w.Chat.Send(context.WithoutCancel(c.Request.Context()), req.Text, req.Mode); err != nil {
		h.chatError(c, err)
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) Regenerate(c *gin.Context) {
	w := currentWorkspace(c)
	if err := w.Chat.Regenerate(context.WithoutCancel(c.Request.Context())); err != nil {
		h.chatError(c, err)
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) TypingComplete(c *gin.Context) {
	w := currentWorkspace(c)
	w.Chat.TypingComplete()
	RespondOK(c, w.Chat.Snapshot())
}

type navigateRequest struct {
	Direction string `json:"direction"`
}

func (h *Handler) NavigateResponse(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dir, ok := chat.ParseDirection(req.Direction)
	if !ok {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("direction must be prev or next"))
		return
	}
	w := currentWorkspace(c)
	w.Chat.NavigateResponse(c.Param("id"), dir)
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) ToggleMessagePin(c *gin.Context) {
	w := currentWorkspace(c)
	if !w.Chat.ToggleMessagePin(c.Param("id")) {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("message not found"))
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

type reactionRequest struct {
	Reaction string `json:"reaction"`
}

func (h *Handler) ToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reaction == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("reaction is required"))
		return
	}
	w := currentWorkspace(c)
	if !w.Chat.ToggleReaction(c.Param("id"), req.Reaction) {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("message not found"))
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrTooLong):
		RespondError(c, http.StatusBadRequest, "invalid_message", err)
	case errors.Is(err, chat.ErrBusy):
		RespondError(c, http.StatusConflict, "busy", err)
	case errors.Is(err, chat.ErrNothingToRegenerate):
		RespondError(c, http.StatusConflict, "nothing_to_regenerate", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

// ---- catalog ----

func (h *Handler) ListChats(c *gin.Context) {
	catalog := currentWorkspace(c).Chat.Catalog()
	filtered := chat.FilterConversations(catalog, c.Query("q"))
	RespondOK(c, gin.H{
		"conversations": filtered,
		"pinned":        chat.PinnedConversations(filtered),
	})
}

func (h *Handler) SelectChat(c *gin.Context) {
	w := currentWorkspace(c)
	if !w.Chat.SelectConversation(c.Param("id")) {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("conversation not found"))
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

type renameRequest struct {
	Title string `json:"title"`
}

func (h *Handler) RenameChat(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	w := currentWorkspace(c)
	if !w.Chat.RenameConversation(c.Param("id"), req.Title) {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("conversation not found or title blank"))
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) ToggleChatPin(c *gin.Context) {
	w := currentWorkspace(c)
	if !w.Chat.ToggleConversationPin(c.Param("id")) {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("conversation not found"))
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) DeleteChat(c *gin.Context) {
	w := currentWorkspace(c)
	if !w.Chat.DeleteConversation(c.Param("id")) {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("conversation not found"))
		return
	}
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) ClearChats(c *gin.Context) {
	w := currentWorkspace(c)
	w.Chat.ClearHistory()
	RespondOK(c, w.Chat.Snapshot())
}

func (h *Handler) ExportChat(c *gin.Context) {
	format, err := chat.ParseExportFormat(c.DefaultQuery("format", string(chat.FormatJSON)))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id := c.Param("id")
	for _, conv := range currentWorkspace(c).Chat.Catalog() {
		if conv.ID != id {
			continue
		}
		now := h.now()
		data, err := chat.ExportConversation(conv, format, now)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "internal", err)
			return
		}
		h.attachment(c, chat.ExportFilename(conv.Title, format, now), format, data)
		return
	}
	RespondError(c, http.StatusNotFound, "not_found", errors.New("conversation not found"))
}

func (h *Handler) ExportChats(c *gin.Context) {
	format, err := chat.ParseExportFormat(c.DefaultQuery("format", string(chat.FormatJSON)))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	now := h.now()
	data, err := chat.ExportCatalog(currentWorkspace(c).Chat.Catalog(), format, now)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	h.attachment(c, chat.ExportFilename("", format, now), format, data)
}

func (h *Handler) ImportChats(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	convs, err := chat.ImportCatalog(body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_import", err)
		return
	}
	added := currentWorkspace(c).Chat.Import(convs)
	RespondOK(c, gin.H{"imported": added})
}

func (h *Handler) attachment(c *gin.Context, filename string, format chat.ExportFormat, data []byte) {
	contentType := "application/json"
	if format == chat.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// ---- history views ----

func (h *Handler) Gallery(c *gin.Context) {
	catalog := currentWorkspace(c).Chat.Catalog()
	images := chat.FilterImages(chat.Images(catalog), catalog, c.Query("q"))
	RespondOK(c, gin.H{"images": images})
}

func (h *Handler) Pinned(c *gin.Context) {
	catalog := currentWorkspace(c).Chat.Catalog()
	items := chat.FilterPinnedMessages(chat.PinnedMessages(catalog), c.Query("q"))
	RespondOK(c, gin.H{"messages": items})
}
