package services

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"dental_clinic_api/models"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// MaxCommentLength caps the stored length of an annotation comment
const MaxCommentLength = 2000

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyComment    = errors.New("comment text is empty")
	ErrCommentTooLong  = errors.New("comment text is too long")
	ErrInvalidAnchor   = errors.New("anchor coordinates must be between 0 and 1")
)

var commentPolicy = bluemonday.StrictPolicy()

// AnnotationCommentInput holds the fields a client may set on a comment
type AnnotationCommentInput struct {
	ImageID   string
	PatientID *string
	X         float64
	Y         float64
	Text      string
	Author    string
}

// plainText strips all markup. Comments are stored and served as plain text,
// so the entities the policy escapes are decoded back.
func plainText(text string) string {
	return strings.TrimSpace(html.UnescapeString(commentPolicy.Sanitize(text)))
}

// sanitizeCommentText strips all markup and surrounding whitespace
func sanitizeCommentText(text string) (string, error) {
	clean := plainText(text)
	if clean == "" {
		return "", ErrEmptyComment
	}
	if len([]rune(clean)) > MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return clean, nil
}

// CreateAnnotationComment validates and stores a new comment on an image
func CreateAnnotationComment(db *gorm.DB, input AnnotationCommentInput) (*models.AnnotationComment, error) {
	if input.X < 0 || input.X > 1 || input.Y < 0 || input.Y > 1 {
		return nil, ErrInvalidAnchor
	}

	text, err := sanitizeCommentText(input.Text)
	if err != nil {
		return nil, err
	}

	author := plainText(input.Author)
	if author == "" {
		author = "anonimo"
	}

	comment := &models.AnnotationComment{
		ImageID:   input.ImageID,
		PatientID: input.PatientID,
		X:         input.X,
		Y:         input.Y,
		Text:      text,
		Author:    author,
	}
	if err := db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// ListAnnotationComments returns the comments of an image, oldest first
func ListAnnotationComments(db *gorm.DB, imageID string) ([]models.AnnotationComment, error) {
	var comments []models.AnnotationComment
	err := db.
		Where("image_id = ?", imageID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// UpdateAnnotationComment replaces the text of an existing comment
func UpdateAnnotationComment(db *gorm.DB, id string, text string) (*models.AnnotationComment, error) {
	clean, err := sanitizeCommentText(text)
	if err != nil {
		return nil, err
	}

	var comment models.AnnotationComment
	if err := db.First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if err := db.Model(&comment).Update("text", clean).Error; err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	comment.Text = clean
	return &comment, nil
}

// DeleteAnnotationComment soft-deletes a comment
func DeleteAnnotationComment(db *gorm.DB, id string) error {
	result := db.Delete(&models.AnnotationComment{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
