package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/commentd/commentd/internal/actions"
	"github.com/commentd/commentd/internal/models"
	"github.com/commentd/commentd/internal/output"
	"github.com/commentd/commentd/internal/store"
)

// NewCommentCmd creates the comment command group
func NewCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Manage comments",
		Long:  "Post, moderate, and query threaded comments. View modes: threaded, flat",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newCommentPostCmd())
	cmd.AddCommand(newCommentReplyCmd())
	cmd.AddCommand(newCommentGetCmd())
	cmd.AddCommand(newCommentListCmd())
	cmd.AddCommand(newCommentCountCmd())
	cmd.AddCommand(newCommentSetStatusCmd("publish", models.CommentPublished))
	cmd.AddCommand(newCommentSetStatusCmd("unpublish", models.CommentUnpublished))
	cmd.AddCommand(newCommentDeleteCmd())

	namespaceIndex(cmd)
	return cmd
}

func newCommentPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a top-level comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, _ := cmd.Flags().GetString("entity")
			body, _ := cmd.Flags().GetString("body")
			author, _ := cmd.Flags().GetString("author")
			subject, _ := cmd.Flags().GetString("subject")
			hostname, _ := cmd.Flags().GetString("hostname")
			unpublished, _ := cmd.Flags().GetBool("unpublished")
			actorName, err := requireActorName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID, err := requireRequestID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			if entityID == "" {
				return cmdErr(errors.New("--entity is required"))
			}
			if body == "" {
				return cmdErr(errors.New("--body is required"))
			}

			nc := store.NewComment{
				EntityID:    entityID,
				Subject:     subject,
				Body:        body,
				AuthorName:  author,
				Hostname:    hostname,
				Unpublished: unpublished,
			}

			var comment *models.Comment
			if err := withDB(func(db *DB) error {
				c, err := actions.CommentPostIdempotent(db, sharedRenderCache(), actorName, requestID, nc)
				if err != nil {
					return err
				}
				comment = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Comment *models.Comment `json:"comment"`
			}
			return output.PrintSuccess(resp{Comment: comment})
		},
	}

	cmd.Flags().String("entity", "", "Entity the comment belongs to (required)")
	cmd.Flags().String("body", "", "Comment body (required)")
	cmd.Flags().String("author", "", "Author display name")
	cmd.Flags().String("subject", "", "Subject (default: derived from body)")
	cmd.Flags().String("hostname", "", "Poster hostname or IP")
	cmd.Flags().Bool("unpublished", false, "Hold the comment for moderation")

	cmd.Annotations = map[string]string{"mutates": "true", "request_id": "true"}
	return cmd
}

func newCommentReplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Reply to an existing comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, _ := cmd.Flags().GetInt64("to")
			body, _ := cmd.Flags().GetString("body")
			author, _ := cmd.Flags().GetString("author")
			subject, _ := cmd.Flags().GetString("subject")
			hostname, _ := cmd.Flags().GetString("hostname")
			unpublished, _ := cmd.Flags().GetBool("unpublished")
			actorName, err := requireActorName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID, err := requireRequestID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			if parentID <= 0 {
				return cmdErr(errors.New("--to is required"))
			}
			if body == "" {
				return cmdErr(errors.New("--body is required"))
			}

			var comment *models.Comment
			if err := withDB(func(db *DB) error {
				parent, err := store.GetComment(db, parentID)
				if err != nil {
					return err
				}

				c, err := actions.CommentPostIdempotent(db, sharedRenderCache(), actorName, requestID, store.NewComment{
					EntityID:    parent.EntityID,
					PID:         parent.ID,
					Subject:     subject,
					Body:        body,
					AuthorName:  author,
					Hostname:    hostname,
					Unpublished: unpublished,
				})
				if err != nil {
					return err
				}
				comment = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Comment *models.Comment `json:"comment"`
			}
			return output.PrintSuccess(resp{Comment: comment})
		},
	}

	cmd.Flags().Int64("to", 0, "Parent comment ID (required)")
	cmd.Flags().String("body", "", "Comment body (required)")
	cmd.Flags().String("author", "", "Author display name")
	cmd.Flags().String("subject", "", "Subject (default: derived from body)")
	cmd.Flags().String("hostname", "", "Poster hostname or IP")
	cmd.Flags().Bool("unpublished", false, "Hold the comment for moderation")

	cmd.Annotations = map[string]string{"mutates": "true", "request_id": "true"}
	return cmd
}

func newCommentGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a comment by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			if id <= 0 {
				return cmdErr(errors.New("--id is required"))
			}

			var comment *models.Comment
			if err := withDB(func(db *DB) error {
				c, err := store.GetComment(db, id)
				if err != nil {
					return err
				}
				comment = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Comment *models.Comment `json:"comment"`
			}
			return output.PrintSuccess(resp{Comment: comment})
		},
	}

	cmd.Flags().Int64("id", 0, "Comment ID (required)")
	return cmd
}

func newCommentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an entity's comments in display order (threaded|flat)",
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, _ := cmd.Flags().GetString("entity")
			mode, _ := cmd.Flags().GetString("mode")
			includeUnpublished, _ := cmd.Flags().GetBool("include-unpublished")
			offset, _ := cmd.Flags().GetInt("offset")
			limit, _ := cmd.Flags().GetInt("limit")

			if entityID == "" {
				return cmdErr(errors.New("--entity is required"))
			}
			viewMode := models.ViewMode(mode)
			if mode != "" && !viewMode.Valid() {
				return cmdErr(errors.New("--mode must be threaded or flat"))
			}

			var comments []*models.Comment
			if err := withDB(func(db *DB) error {
				list, err := store.ListComments(db, entityID, store.ListOptions{
					Mode:               viewMode,
					IncludeUnpublished: includeUnpublished,
					Offset:             offset,
					Limit:              limit,
				})
				if err != nil {
					return err
				}
				comments = list
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				EntityID string            `json:"entity_id"`
				Count    int               `json:"count"`
				Comments []*models.Comment `json:"comments"`
			}
			return output.PrintSuccess(resp{EntityID: entityID, Count: len(comments), Comments: comments})
		},
	}

	cmd.Flags().String("entity", "", "Entity to list comments for (required)")
	cmd.Flags().String("mode", "", "View mode: threaded (default) or flat")
	cmd.Flags().Bool("include-unpublished", false, "Include moderation-queue comments")
	cmd.Flags().Int("offset", 0, "Skip this many comments")
	cmd.Flags().Int("limit", 0, "Maximum comments to return (0 = no limit)")
	return cmd
}

func newCommentCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count an entity's comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, _ := cmd.Flags().GetString("entity")
			publishedOnly, _ := cmd.Flags().GetBool("published-only")

			if entityID == "" {
				return cmdErr(errors.New("--entity is required"))
			}

			var count int64
			if err := withDB(func(db *DB) error {
				n, err := store.CountComments(db, entityID, publishedOnly)
				if err != nil {
					return err
				}
				count = n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				EntityID string `json:"entity_id"`
				Count    int64  `json:"count"`
			}
			return output.PrintSuccess(resp{EntityID: entityID, Count: count})
		},
	}

	cmd.Flags().String("entity", "", "Entity to count comments for (required)")
	cmd.Flags().Bool("published-only", false, "Count published comments only")
	return cmd
}

func newCommentSetStatusCmd(use string, status models.CommentStatus) *cobra.Command {
	short := "Unpublish a comment (hide from readers)"
	if status.IsPublished() {
		short = "Publish a comment"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			version, _ := cmd.Flags().GetInt("expect-version")
			actorName, err := requireActorName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID, err := requireRequestID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			if id <= 0 {
				return cmdErr(errors.New("--id is required"))
			}

			var comment *models.Comment
			if err := withDB(func(db *DB) error {
				c, err := actions.CommentSetStatusIdempotent(db, sharedRenderCache(), actorName, requestID, id, status, version)
				if err != nil {
					return err
				}
				comment = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Comment *models.Comment `json:"comment"`
			}
			return output.PrintSuccess(resp{Comment: comment})
		},
	}

	cmd.Flags().Int64("id", 0, "Comment ID (required)")
	cmd.Flags().Int("expect-version", 0, "Fail unless the comment is at this version (0 = current)")

	cmd.Annotations = map[string]string{"mutates": "true", "request_id": "true"}
	return cmd
}

func newCommentDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a comment and its replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			actorName, err := requireActorName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID, err := requireRequestID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			if id <= 0 {
				return cmdErr(errors.New("--id is required"))
			}

			var result *actions.CommentDeleteResult
			if err := withDB(func(db *DB) error {
				r, err := actions.CommentDeleteIdempotent(db, sharedRenderCache(), actorName, requestID, id)
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(result)
		},
	}

	cmd.Flags().Int64("id", 0, "Comment ID (required)")

	cmd.Annotations = map[string]string{"mutates": "true", "request_id": "true"}
	return cmd
}
