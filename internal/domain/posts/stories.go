package posts

import (
	"context"
	"fmt"

	"apa-backoffice/internal/domain/lostpets"
	"apa-backoffice/internal/domain/workflow"

	"github.com/google/uuid"
)

// CreateSuccessStory publica la historia de final feliz de un anuncio encontrado.
func (s *Service) CreateSuccessStory(ctx context.Context, f lostpets.Found) (Post, error) {
	title := f.Title
	if title == "" {
		title = fmt.Sprintf("Final Feliz para %s!", f.Pet.Name)
	}
	content := f.Content
	if content == "" {
		content = fmt.Sprintf("%s foi encontrado e voltou para casa! %s", f.Pet.Name, f.Pet.Description)
	}

	now := s.now()
	p := Post{
		ID:            uuid.NewString(),
		Title:         title,
		Content:       content,
		Excerpt:       Excerpt(content),
		Image:         f.Pet.PhotoURL,
		Category:      CategoryStory,
		Author:        SystemAuthor,
		PublishDate:   now,
		IsActive:      true,
		IsHighlighted: false,
		SourceID:      f.Pet.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Post{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

// SubscribeSuccessStories engancha la creación de historias a las transiciones
// de mascotas perdidas. Cada entrada a encontrado genera una historia.
func (s *Service) SubscribeSuccessStories(bus *workflow.Bus) {
	bus.Subscribe(lostpets.StatusMachine, func(ctx context.Context, e workflow.Event) error {
		if e.To != string(lostpets.StatusFound) {
			return nil
		}
		f, ok := e.Record.(lostpets.Found)
		if !ok {
			return fmt.Errorf("success story: unexpected record %T", e.Record)
		}
		_, err := s.CreateSuccessStory(ctx, f)
		return err
	})
}
