package chat

import (
	"context"
	"fmt"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// Projector derives the opponent-centric chat list view for one user. The
// view is recomputed on demand from the same summaries the lifecycle writes,
// never stored independently.
type Projector struct {
	chatList repositories.ChatListRepository
	users    repositories.UserRepository
}

// NewProjector constructs a Projector.
func NewProjector(chatList repositories.ChatListRepository, users repositories.UserRepository) *Projector {
	return &Projector{chatList: chatList, users: users}
}

// ChatList returns the user's conversations ordered most-recent-first, each
// with the opponent's public profile joined in. A conversation whose opponent
// reference cannot be resolved degrades to a nil profile instead of failing
// the whole projection.
func (p *Projector) ChatList(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	entries, err := p.chatList.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load chat list: %w", err)
	}

	opponentIDs := make([]string, 0, len(entries))
	seen := map[string]struct{}{}
	for _, entry := range entries {
		id, ok := entry.Opponent(userID)
		if !ok || id == "" {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			opponentIDs = append(opponentIDs, id)
		}
	}

	profiles := map[string]models.UserProfile{}
	if len(opponentIDs) > 0 {
		users, err := p.users.BulkGet(ctx, opponentIDs)
		if err != nil {
			return nil, fmt.Errorf("load opponents: %w", err)
		}
		for _, u := range users {
			profiles[u.ID] = u.Profile()
		}
	}

	summaries := make([]models.ChatSummary, 0, len(entries))
	for _, entry := range entries {
		summary := models.ChatSummary{
			ChatID: entry.ChatID,
			LastMessage: models.LastMessageInfo{
				Text:       entry.LastMessage,
				Status:     entry.LastMessageStatus,
				Time:       entry.LastMessageTime,
				SenderID:   entry.LastSenderID,
				ReceiverID: entry.LastReceiverID,
			},
			UnreadCount: entry.UnreadCount,
		}
		if id, ok := entry.Opponent(userID); ok {
			if profile, found := profiles[id]; found {
				p := profile
				summary.Opponent = &p
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
