package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"findmygig/scan-service/internal/model"
)

// ErrNotFound is returned when the ticket or artifact does not exist or does
// not belong to the requesting user.
var ErrNotFound = errors.New("not found")

// ErrNoBaseCV is returned when artifact generation is requested before a CV
// was uploaded.
var ErrNoBaseCV = errors.New("No base CV found. Please upload your CV first.")

// coverLetterStyle is the reference letter whose voice the generated cover
// letters imitate.
const coverLetterStyle = `Hey team,

I'm Guy :)

I built business operations at Firebolt from zero, from forecasting and board reporting to cross-functional programs, PLG motion and AI automation from the ground up (LangChain and then AWS Bedrock).
Now I want to do it for Impala. I understand your space, have built these systems before, and possess technical depth most BizOps people lack.

Will love to chat, CV attached.

Thanks,
Guy`

// Composer produces tailored application text.
type Composer interface {
	GenerateTailoredCV(ctx context.Context, baseCV, jobDescription, jobTitle, company string) (model.CVSections, string, error)
	GenerateCoverLetter(ctx context.Context, baseCV, jobDescription, jobTitle, company, userName, styleReference string) (string, error)
}

// Meta is the artifact summary returned after generation.
type Meta struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	FileName string `json:"fileName"`
}

// Download is one artifact's payload for serving.
type Download struct {
	FileName string
	MimeType string
	Data     []byte
}

// Service generates and serves ticket artifacts.
type Service struct {
	pool     *pgxpool.Pool
	composer Composer
}

// NewService returns a configured Service.
func NewService(pool *pgxpool.Pool, composer Composer) *Service {
	return &Service{pool: pool, composer: composer}
}

// Generate builds the three artifacts for a ticket and replaces whatever was
// stored before. Regeneration never appends.
func (s *Service) Generate(ctx context.Context, userID, ticketID string) ([]Meta, error) {
	if uuid.Validate(ticketID) != nil {
		return nil, ErrNotFound
	}
	var (
		jobTitle, company, jobDescription string
		userName, userEmail               string
		baseCV                            *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT j.title, j.company, j.description,
		        COALESCE(u.name, 'User'), u.email, u.base_cv
		 FROM tickets t
		 JOIN jobs j ON j.id = t.job_id
		 JOIN users u ON u.id = t.user_id
		 WHERE t.id = $1 AND t.user_id = $2`,
		ticketID, userID,
	).Scan(&jobTitle, &company, &jobDescription, &userName, &userEmail, &baseCV)
	if err != nil {
		return nil, ErrNotFound
	}
	if baseCV == nil || *baseCV == "" {
		return nil, ErrNoBaseCV
	}

	sections, fullText, err := s.composer.GenerateTailoredCV(ctx, *baseCV, jobDescription, jobTitle, company)
	if err != nil {
		return nil, fmt.Errorf("tailor cv: %w", err)
	}
	letter, err := s.composer.GenerateCoverLetter(ctx, *baseCV, jobDescription, jobTitle, company, userName, coverLetterStyle)
	if err != nil {
		return nil, fmt.Errorf("cover letter: %w", err)
	}

	cvDocx, err := CVDocx(userName, userEmail, sections)
	if err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	cvPdf, err := CVPdf(userName, userEmail, fullText)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	letterText := CoverLetterText(userName, userEmail, company, jobTitle, letter)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM artifacts WHERE ticket_id = $1`, ticketID); err != nil {
		return nil, fmt.Errorf("clear artifacts: %w", err)
	}

	inserts := []struct {
		artifactType string
		fileName     string
		mimeType     string
		fileData     []byte
		content      *string
	}{
		{
			artifactType: model.ArtifactCVDocx,
			fileName:     FileName(userName, "CV", company, "docx"),
			mimeType:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			fileData:     cvDocx,
		},
		{
			artifactType: model.ArtifactCVPdf,
			fileName:     FileName(userName, "CV", company, "pdf"),
			mimeType:     "application/pdf",
			fileData:     cvPdf,
		},
		{
			artifactType: model.ArtifactCoverLetterTxt,
			fileName:     FileName(userName, "CoverLetter", company, "txt"),
			mimeType:     "text/plain",
			content:      &letterText,
		},
	}

	metas := make([]Meta, 0, len(inserts))
	for _, ins := range inserts {
		var id string
		err := tx.QueryRow(ctx,
			`INSERT INTO artifacts (ticket_id, type, file_name, mime_type, file_data, content)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			ticketID, ins.artifactType, ins.fileName, ins.mimeType, ins.fileData, ins.content,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", ins.artifactType, err)
		}
		metas = append(metas, Meta{ID: id, Type: ins.artifactType, FileName: ins.fileName})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("generate commit: %w", err)
	}
	return metas, nil
}

// GetDownload loads one artifact's payload, validating that the owning ticket
// belongs to userID.
func (s *Service) GetDownload(ctx context.Context, userID, artifactID string) (*Download, error) {
	if uuid.Validate(artifactID) != nil {
		return nil, ErrNotFound
	}
	var (
		d            Download
		artifactType string
		fileData     []byte
		content      *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT a.type, a.file_name, a.mime_type, a.file_data, a.content
		 FROM artifacts a
		 JOIN tickets t ON t.id = a.ticket_id
		 WHERE a.id = $1 AND t.user_id = $2`,
		artifactID, userID,
	).Scan(&artifactType, &d.FileName, &d.MimeType, &fileData, &content)
	if err != nil {
		return nil, ErrNotFound
	}

	if artifactType == model.ArtifactCoverLetterTxt {
		if content != nil {
			d.Data = []byte(*content)
		}
	} else {
		d.Data = fileData
	}
	if d.MimeType == "" {
		d.MimeType = "application/octet-stream"
	}
	return &d, nil
}
