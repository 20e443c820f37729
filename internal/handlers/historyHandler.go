package handlers

import (
	"net/http"

	"github.com/docchat-ai/docchat/internal/api"
)

// historyFetchLimit caps how many turns GET /chats/{id}/messages returns.
const historyFetchLimit = 100

// ListChatsHandler godoc
// @Summary      List chat sessions
// @Tags         Chats
// @Produce      json
// @Success      200  {object}  api.ChatListResponse
// @Router       /chats [get]
func ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	ms := getMessageStore()
	if ms == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "message store unavailable")
		return
	}

	ids, err := ms.ListChats(r.Context())
	if err != nil {
		logRH.Error("Error listing chats", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "could not list chats")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ChatListResponse{ChatIds: ids})
}

// GetChatHistoryHandler godoc
// @Summary      Get messages of a chat session
// @Tags         Chats
// @Produce      json
// @Param        id   path      string  true  "Chat ID"
// @Success      200  {object}  api.ChatHistoryResponse
// @Failure      404  {object}  api.JobResponse "Chat not found"
// @Router       /chats/{id}/messages [get]
func GetChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	ms := getMessageStore()
	if ms == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "message store unavailable")
		return
	}

	chatId := getURLParam(r, "id")
	if chatId == "" || !ms.ValidateChatId(r.Context(), chatId) {
		WriteErrorResponse(w, http.StatusNotFound, chatId, "Chat not found")
		return
	}

	messages, err := ms.GetMessageHistory(r.Context(), chatId, historyFetchLimit)
	if err != nil {
		logRH.Error("Error loading chat history", "chatId", chatId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, chatId, "could not load history")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ChatHistoryResponse{ChatId: chatId, Messages: messages})
}

// DeleteChatHandler godoc
// @Summary      Delete a chat session and its messages
// @Tags         Chats
// @Produce      json
// @Param        id   path      string  true  "Chat ID"
// @Success      204  "Deleted"
// @Failure      404  {object}  api.JobResponse "Chat not found"
// @Router       /chats/{id} [delete]
func DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	ms := getMessageStore()
	if ms == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "message store unavailable")
		return
	}

	chatId := getURLParam(r, "id")
	if chatId == "" || !ms.ValidateChatId(r.Context(), chatId) {
		WriteErrorResponse(w, http.StatusNotFound, chatId, "Chat not found")
		return
	}

	if err := ms.DeleteChat(r.Context(), chatId); err != nil {
		logRH.Error("Error deleting chat", "chatId", chatId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, chatId, "could not delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
