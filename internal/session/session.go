package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/profilesketch/sketcher/internal/batch"
	"github.com/profilesketch/sketcher/internal/credential"
	"github.com/profilesketch/sketcher/internal/models"
	"github.com/profilesketch/sketcher/internal/preview"
)

var (
	ErrMissingCredential  = errors.New("analysis credential is not configured")
	ErrAnalysisFailed     = errors.New("analysis failed, please retry")
	ErrSubmissionInFlight = errors.New("an analysis is already in progress")
	ErrShareUnavailable   = errors.New("sharing is coming soon")
)

// Analyzer performs the external analysis call
type Analyzer interface {
	Analyze(ctx context.Context, images []string, prompt, apiKey string) (*models.AnalysisResult, error)
}

// Session is one user's upload, analysis and result flow.
type Session struct {
	ID        string
	CreatedAt time.Time

	batch    *batch.Batch
	creds    credential.Store
	analyzer Analyzer
	renderer *preview.Renderer
	prompt   string

	unsubscribe func()

	// mutateMu serializes batch mutations, their change hooks, Reset and the
	// Upload to Loading transition. Lock order: mutateMu, mu, batch.
	mutateMu sync.Mutex

	mu            sync.Mutex
	view          models.ViewState
	eligible      bool
	result        *models.AnalysisResult
	submitEpoch   uint64
	inFlight      bool
	cancelSubmit  context.CancelFunc
	previews      map[int]preview.Preview
	previewGen    uint64
	previewDone   chan struct{}
	previewCancel context.CancelFunc
}

// Option customises a Session
type Option func(*Session)

// WithRenderer enables background preview rendering on every batch change.
func WithRenderer(r *preview.Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithPrompt overrides the instruction sent with the images.
func WithPrompt(prompt string) Option {
	return func(s *Session) { s.prompt = prompt }
}

// New creates a session in the Upload view with an empty batch.
func New(id string, creds credential.Store, analyzer Analyzer, opts ...Option) *Session {
	done := make(chan struct{})
	close(done)

	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		batch:       batch.New(),
		creds:       creds,
		analyzer:    analyzer,
		view:        models.ViewUpload,
		previews:    map[int]preview.Preview{},
		previewDone: done,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.batch.OnChange(s.onBatchChange)
	s.unsubscribe = creds.Subscribe(func(present bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.eligible = batch.Eligible(s.batch.Size(), present)
	})
	s.eligible = batch.Eligible(0, s.credentialPresent(context.Background()))

	return s
}

// Close detaches the session from the credential store and stops rendering.
func (s *Session) Close() {
	s.unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previewCancel != nil {
		s.previewCancel()
	}
	if s.cancelSubmit != nil {
		s.cancelSubmit()
	}
}

func (s *Session) credentialPresent(ctx context.Context) bool {
	_, ok, err := s.creds.Get(ctx)
	if err != nil {
		slog.Warn("Unable to read credential", "session_id", s.ID, "err", err)
		return false
	}
	return ok
}

// onBatchChange re-evaluates eligibility and restarts preview rendering.
// Snapshots older than the last one applied are ignored.
func (s *Session) onBatchChange(snap batch.Snapshot) {
	present := s.credentialPresent(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Generation <= s.previewGen {
		slog.Debug("Ignoring stale batch change", "session_id", s.ID, "generation", snap.Generation, "applied", s.previewGen)
		return
	}

	s.eligible = batch.Eligible(len(snap.Files), present)

	if s.previewCancel != nil {
		s.previewCancel()
		s.previewCancel = nil
	}
	s.previews = map[int]preview.Preview{}
	s.previewGen = snap.Generation

	done := make(chan struct{})
	s.previewDone = done
	if s.renderer == nil || len(snap.Files) == 0 {
		close(done)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.previewCancel = cancel
	go s.render(ctx, snap, done)
}

func (s *Session) render(ctx context.Context, snap batch.Snapshot, done chan struct{}) {
	defer close(done)
	for p := range s.renderer.Render(ctx, snap) {
		s.mu.Lock()
		if p.Generation == s.previewGen {
			s.previews[p.Index] = p
		}
		s.mu.Unlock()
	}
}

// AddFiles adds candidate files to the batch; see batch.Batch.AddFiles.
func (s *Session) AddFiles(files []batch.ImageFile) (int, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	if s.View() == models.ViewLoading {
		return 0, ErrSubmissionInFlight
	}
	return s.batch.AddFiles(files)
}

// RemoveAt removes one image from the batch.
func (s *Session) RemoveAt(i int) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	if s.View() == models.ViewLoading {
		return ErrSubmissionInFlight
	}
	return s.batch.RemoveAt(i)
}

// Clear empties the batch.
func (s *Session) Clear() error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	if s.View() == models.ViewLoading {
		return ErrSubmissionInFlight
	}
	s.batch.Clear()
	return nil
}

func (s *Session) Size() int {
	return s.batch.Size()
}

func (s *Session) Files() []batch.ImageFile {
	return s.batch.Files()
}

func (s *Session) View() models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Eligible reports whether the batch size is within bounds and a credential is set.
func (s *Session) Eligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligible
}

// CanSubmit is Eligible with no submission currently in flight. A call
// abandoned by Reset still counts as in flight until it returns.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligible && !s.inFlight
}

// Result returns the last successful analysis, if the session is showing one.
func (s *Session) Result() (*models.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.result != nil
}

// Submit runs the analysis for the current batch.
//
// Without a credential it returns ErrMissingCredential and leaves the view
// alone. A batch outside [batch.MinImages, batch.MaxImages] is rejected with
// batch.ErrTooFewImages or batch.ErrTooManyImages. Otherwise the session moves
// to Loading, encodes every image, and calls the analyzer once. Success moves
// to Result; any failure returns to Upload with the batch untouched and an
// error wrapping ErrAnalysisFailed. Only one call runs at a time, including
// one abandoned by Reset.
func (s *Session) Submit(ctx context.Context) (*models.AnalysisResult, error) {
	token, ok, err := s.creds.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if !ok {
		return nil, ErrMissingCredential
	}

	s.mutateMu.Lock()
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.mutateMu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	snap := s.batch.Snapshot()
	if err := batch.CheckSize(len(snap.Files)); err != nil {
		s.mu.Unlock()
		s.mutateMu.Unlock()
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.view = models.ViewLoading
	s.result = nil
	s.submitEpoch++
	epoch := s.submitEpoch
	s.inFlight = true
	s.cancelSubmit = cancel
	s.mu.Unlock()
	s.mutateMu.Unlock()

	slog.Info("Submitting batch for analysis", "session_id", s.ID, "images", len(snap.Files))

	result, err := s.analyze(ctx, snap.Files, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	s.cancelSubmit = nil

	if epoch != s.submitEpoch {
		// reset while the call was in flight
		slog.Info("Discarding analysis for reset session", "session_id", s.ID)
		return nil, fmt.Errorf("%w: session was reset", ErrAnalysisFailed)
	}
	if err != nil {
		s.view = models.ViewUpload
		slog.Error("Analysis failed", "session_id", s.ID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	s.view = models.ViewResult
	s.result = result
	return result, nil
}

func (s *Session) analyze(ctx context.Context, files []batch.ImageFile, token string) (*models.AnalysisResult, error) {
	images, err := EncodeAll(ctx, files)
	if err != nil {
		return nil, err
	}
	result, err := s.analyzer.Analyze(ctx, images, s.prompt, token)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("analyzer returned no result")
	}
	return result, nil
}

// EncodeAll base64-encodes every file in order. If any file cannot be read
// the whole call fails.
func EncodeAll(ctx context.Context, files []batch.ImageFile) ([]string, error) {
	encoded := make([]string, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := file.ReadAll()
			if err != nil {
				return fmt.Errorf("failed to encode image %d: %w", i, err)
			}
			encoded[i] = base64.StdEncoding.EncodeToString(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return encoded, nil
}

// Reset clears the batch, previews and result and returns to Upload from any view.
// A submission still in flight is cancelled and its outcome discarded.
func (s *Session) Reset() {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	s.view = models.ViewUpload
	s.result = nil
	s.submitEpoch++
	if s.cancelSubmit != nil {
		s.cancelSubmit()
	}
	s.mu.Unlock()

	s.batch.Clear()
}

// Share is not available yet.
func (s *Session) Share() error {
	return ErrShareUnavailable
}

// Previews returns the previews decoded so far for the current batch, in batch order.
func (s *Session) Previews() []preview.Preview {
	s.mu.Lock()
	defer s.mu.Unlock()

	previews := make([]preview.Preview, 0, len(s.previews))
	for _, p := range s.previews {
		previews = append(previews, p)
	}
	sort.Slice(previews, func(i, j int) bool { return previews[i].Index < previews[j].Index })
	return previews
}

// WaitPreviews blocks until the current render finishes or ctx is done.
func (s *Session) WaitPreviews(ctx context.Context) []preview.Preview {
	s.mu.Lock()
	done := s.previewDone
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return s.Previews()
}

// FileInfo describes one batch entry
type FileInfo struct {
	Index        int       `json:"index"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type"`
}

// Status is a snapshot of the session for clients
type Status struct {
	ID        string           `json:"id"`
	View      models.ViewState `json:"view"`
	Size      int              `json:"size"`
	Files     []FileInfo       `json:"files"`
	Eligible  bool             `json:"eligible"`
	CanSubmit bool             `json:"can_submit"`
	HasResult bool             `json:"has_result"`
	MinImages int              `json:"min_images"`
	MaxImages int              `json:"max_images"`
	CreatedAt time.Time        `json:"created_at"`
}

func (s *Session) Status() Status {
	files := s.batch.Files()
	infos := make([]FileInfo, len(files))
	for i, f := range files {
		infos[i] = FileInfo{
			Index:        i,
			Name:         f.Name,
			Size:         f.Size,
			LastModified: f.LastModified,
			ContentType:  f.ContentType,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:        s.ID,
		View:      s.view,
		Size:      len(files),
		Files:     infos,
		Eligible:  s.eligible,
		CanSubmit: s.eligible && !s.inFlight,
		HasResult: s.result != nil,
		MinImages: batch.MinImages,
		MaxImages: batch.MaxImages,
		CreatedAt: s.CreatedAt,
	}
}
