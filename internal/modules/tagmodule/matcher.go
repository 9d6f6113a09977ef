package tagmodule

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
)

// Recoverable matcher outcomes. Callers branch on these instead of parsing
// messages.
var (
	ErrVideoNotFound    = errors.New("video not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrNoTranscription  = errors.New("video has no transcription")
	ErrNoTagsInDatabase = errors.New("no tags in database")
	ErrNoTagsFound      = errors.New("no tags found")
)

// Unicode-aware word boundaries: a match must not touch a letter, digit or
// underscore on either side.
const (
	wordBoundaryStart = `(?:^|[^\p{L}\p{N}_])`
	wordBoundaryEnd   = `(?:$|[^\p{L}\p{N}_])`
)

// Matcher scans video transcriptions for tag names and their spelling
// variations. Matching is case-sensitive and whole-word; patterns are
// compiled from escaped literals and cached.
type Matcher struct {
	db *gorm.DB

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewMatcher creates a matcher over the given database.
func NewMatcher(db *gorm.DB) *Matcher {
	return &Matcher{
		db:       db,
		patterns: make(map[string]*regexp.Regexp),
	}
}

// ExtractTags matches the video's transcription against one tag (tagID
// non-nil) or every tag. The returned slice preserves duplicates: a tag
// name appears once per matching name or variation, as observed behavior
// downstream may count on.
func (m *Matcher) ExtractTags(videoID uint, tagID *uint) ([]string, error) {
	var video database.Video
	if err := m.db.First(&video, videoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to load video %d: %w", videoID, err)
	}
	if video.Transcription == nil || *video.Transcription == "" {
		return nil, ErrNoTranscription
	}
	content := *video.Transcription

	var tags []database.Tag
	query := m.db
	if tagID != nil {
		query = query.Where("id = ?", *tagID)
	}
	if err := query.Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	if len(tags) == 0 {
		if tagID != nil {
			return nil, ErrTagNotFound
		}
		return nil, ErrNoTagsInDatabase
	}

	var found []string
	for i := range tags {
		tag := &tags[i]
		if m.matches(content, tag.Name) {
			found = append(found, tag.Name)
		}
		for _, alt := range tag.VariationList() {
			if m.matches(content, alt) {
				found = append(found, tag.Name)
			}
		}
	}
	if len(found) == 0 {
		return nil, ErrNoTagsFound
	}
	return found, nil
}

// ApplyTags runs the matcher across all tags and persists the distinct
// matches as taggings on the video. Returns the raw match list, duplicates
// included.
func (m *Matcher) ApplyTags(videoID uint) ([]string, error) {
	found, err := m.ExtractTags(videoID, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(found))
	distinct := make([]string, 0, len(found))
	for _, name := range found {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			distinct = append(distinct, name)
		}
	}

	var tags []database.Tag
	if err := m.db.Where("name IN ?", distinct).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load matched tags: %w", err)
	}
	video := database.Video{ID: videoID}
	if err := m.db.Model(&video).Association("Tags").Append(&tags); err != nil {
		return nil, fmt.Errorf("failed to persist taggings: %w", err)
	}
	return found, nil
}

func (m *Matcher) matches(content, literal string) bool {
	re, err := m.pattern(literal)
	if err != nil {
		return false
	}
	return re.MatchString(content)
}

func (m *Matcher) pattern(literal string) (*regexp.Regexp, error) {
	m.mu.RLock()
	re, ok := m.patterns[literal]
	m.mu.RUnlock()
	if ok {
		return re, nil
	}

	// RE2's \b is ASCII-only and never fires next to diacritic edges like
	// the ú in "Itaipú" or a leading Ñ, so word boundaries are spelled out
	// over Unicode letter/digit classes instead.
	re, err := regexp.Compile(wordBoundaryStart + regexp.QuoteMeta(literal) + wordBoundaryEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern for %q: %w", literal, err)
	}
	m.mu.Lock()
	m.patterns[literal] = re
	m.mu.Unlock()
	return re, nil
}
