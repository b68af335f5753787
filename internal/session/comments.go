/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"fmt"
	"log/slog"

	"goscreenwriter/internal/domain"
)

// CreateComment anchors a new comment to a text range. The comment enters
// the store optimistically but the highlight only appears once persistence
// succeeds: on failure the comment is withdrawn and the error returned, so
// the caller never renders a highlight for a comment that does not exist.
func (s *Session) CreateComment(ctx context.Context, blockID string, start, end int, text string) (domain.Comment, error) {
	c := domain.Comment{
		BlockID:     blockID,
		AuthorID:    s.opts.UserID,
		AuthorName:  s.opts.UserName,
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
		CreatedAt:   s.opts.Now(),
	}
	s.mu.Lock()
	if i := domain.FindBlock(s.doc.Blocks, blockID); i >= 0 {
		// Offsets are rune positions, matching the editor's caret arithmetic.
		content := []rune(s.doc.Blocks[i].Content)
		if start >= 0 && end <= len(content) && start < end {
			c.HighlightedText = string(content[start:end])
		}
	}
	s.mu.Unlock()

	c = s.comments.Add(c)
	if s.persist == nil {
		return c, nil
	}
	if err := s.persist.CreateComment(ctx, c); err != nil {
		s.comments.Remove(c.ID)
		s.logger.Error("comment create failed", slog.String("comment", c.ID), slog.Any("error", err))
		return domain.Comment{}, err
	}
	return c, nil
}

// ResolveComment flips the resolved flag optimistically and rolls back when
// persistence fails; the failure is logged, not returned, because the local
// state has already been restored.
func (s *Session) ResolveComment(ctx context.Context, id string, resolved bool) bool {
	prev, ok := s.comments.SetResolved(id, resolved)
	if !ok {
		return false
	}
	if s.persist == nil {
		return true
	}
	if err := s.persist.SetCommentResolved(ctx, id, resolved); err != nil {
		s.comments.SetResolved(id, prev)
		s.logger.Warn("comment resolve failed, rolled back", slog.String("comment", id), slog.Any("error", err))
		return false
	}
	return true
}

// ReplyToComment appends a reply under the thread of parentID.
func (s *Session) ReplyToComment(ctx context.Context, parentID, text string) (domain.Comment, error) {
	r := domain.Comment{
		AuthorID:   s.opts.UserID,
		AuthorName: s.opts.UserName,
		Text:       text,
		CreatedAt:  s.opts.Now(),
	}
	r, ok := s.comments.Reply(parentID, r)
	if !ok {
		return domain.Comment{}, fmt.Errorf("unknown comment %q", parentID)
	}
	if s.persist == nil {
		return r, nil
	}
	if err := s.persist.AddReply(ctx, r.ParentID, r); err != nil {
		s.comments.Remove(r.ID)
		s.logger.Error("reply create failed", slog.String("comment", r.ID), slog.Any("error", err))
		return domain.Comment{}, err
	}
	return r, nil
}

// ToggleReaction toggles the (user, emoji) reaction optimistically. On
// persistence failure the toggle is reversed and the failure logged.
func (s *Session) ToggleReaction(ctx context.Context, commentID, emoji string) bool {
	at := s.opts.Now()
	_, ok := s.comments.ToggleReaction(commentID, emoji, s.opts.UserID, s.opts.UserName, at)
	if !ok {
		return false
	}
	if s.persist == nil {
		return true
	}
	r := domain.Reaction{Emoji: emoji, UserID: s.opts.UserID, UserName: s.opts.UserName, CreatedAt: at}
	if err := s.persist.ToggleReaction(ctx, commentID, r); err != nil {
		s.comments.ToggleReaction(commentID, emoji, s.opts.UserID, s.opts.UserName, at)
		s.logger.Warn("reaction toggle failed, rolled back", slog.String("comment", commentID), slog.Any("error", err))
		return false
	}
	return true
}
