package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/eirem/relay/internal/core"
	"github.com/eirem/relay/internal/domain"
)

// historyEntry tags each row relative to the requesting identity.
type historyEntry struct {
	From      string `json:"from"` // "me" or "them"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// historyHandler serves the conversation between the requester and the user
// in the path, oldest first. The requester's identity comes from the userId
// query parameter under the same trust model as connect: the token is
// checked for validity only.
func historyHandler(store core.MessageStore, verifier core.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := verifier.Verify(bearerToken(c)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}

		me := domain.UserID(c.Query("userId"))
		if me == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing userId"})
			return
		}
		other := domain.UserID(c.Param("userID"))

		msgs, err := store.Between(c.Request.Context(), me, other)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("history query")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "error fetching messages"})
			return
		}

		entries := make([]historyEntry, 0, len(msgs))
		for _, m := range msgs {
			from := "them"
			if m.From == me {
				from = "me"
			}
			entries = append(entries, historyEntry{From: from, Text: m.Text, Timestamp: m.Timestamp})
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "messages": entries})
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}
