package engine

import (
	"context"
	"errors"
	"strings"

	"novelreel/internal/domain"
	"novelreel/internal/events"
	"novelreel/internal/repo"
)

type CharacterList struct {
	Characters     []domain.Character `json:"characters"`
	LockedEntities []string           `json:"locked_entities"`
}

type LockState struct {
	IsLocked bool `json:"is_locked"`
}

func (e Engine) ListCharacters(ctx context.Context, project string) (CharacterList, error) {
	if _, err := e.requireProject(ctx, project); err != nil {
		return CharacterList{}, err
	}
	chars, err := e.Repo.ListCharacters(ctx, project)
	if err != nil {
		return CharacterList{}, err
	}
	out := CharacterList{Characters: []domain.Character{}, LockedEntities: []string{}}
	for _, c := range chars {
		out.Characters = append(out.Characters, c)
		if c.Locked {
			out.LockedEntities = append(out.LockedEntities, c.Name)
		}
	}
	return out, nil
}

func (e Engine) CreateCharacter(ctx context.Context, project, name string, attrs map[string]any, actorID string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validName("实体", name); err != nil {
		return "", err
	}
	if _, err := e.requireProject(ctx, project); err != nil {
		return "", err
	}
	if _, err := e.Repo.GetCharacter(ctx, project, name); err == nil {
		return "", failf("实体 %s 已存在", name)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return "", err
	}
	if err := e.Repo.UpsertCharacter(ctx, project, domain.Character{Name: name, Attributes: attrs}); err != nil {
		return "", err
	}
	if err := e.Events.Append(ctx, nil, "character.create", project, "character", name, actorID, nil); err != nil {
		return "", err
	}
	return "实体 " + name + " 已创建", nil
}

// UpdateCharacter replaces the attributes of an existing character.
func (e Engine) UpdateCharacter(ctx context.Context, project, name string, attrs map[string]any, actorID string) (string, error) {
	if err := required(project, name); err != nil {
		return "", err
	}
	if _, err := e.loadCharacter(ctx, project, name); err != nil {
		return "", err
	}
	if err := e.Repo.UpsertCharacter(ctx, project, domain.Character{Name: name, Attributes: attrs}); err != nil {
		return "", err
	}
	if err := e.Events.Append(ctx, nil, "character.update", project, "character", name, actorID, events.Payload{"attributes": len(attrs)}); err != nil {
		return "", err
	}
	return "实体 " + name + " 已更新", nil
}

func (e Engine) ToggleCharacterLock(ctx context.Context, project, name, actorID string) (LockState, error) {
	if err := required(project, name); err != nil {
		return LockState{}, err
	}
	c, err := e.loadCharacter(ctx, project, name)
	if err != nil {
		return LockState{}, err
	}
	locked := !c.Locked
	if err := e.Repo.SetCharacterLocked(ctx, project, name, locked); err != nil {
		return LockState{}, err
	}
	if err := e.Events.Append(ctx, nil, "character.lock", project, "character", name, actorID, events.Payload{"locked": locked}); err != nil {
		return LockState{}, err
	}
	return LockState{IsLocked: locked}, nil
}

// DeleteCharacter removes an unlocked character.
func (e Engine) DeleteCharacter(ctx context.Context, project, name, actorID string) error {
	if err := required(project, name); err != nil {
		return err
	}
	c, err := e.loadCharacter(ctx, project, name)
	if err != nil {
		return err
	}
	if c.Locked {
		return failf("实体 %s 已被锁定，无法删除", name)
	}
	if err := e.Repo.DeleteCharacter(ctx, project, name); err != nil {
		return err
	}
	return e.Events.Append(ctx, nil, "character.delete", project, "character", name, actorID, nil)
}

func (e Engine) loadCharacter(ctx context.Context, project, name string) (domain.Character, error) {
	if _, err := e.requireProject(ctx, project); err != nil {
		return domain.Character{}, err
	}
	c, err := e.Repo.GetCharacter(ctx, project, name)
	if errors.Is(err, repo.ErrNotFound) {
		return c, failf("实体 %s 不存在", name)
	}
	return c, err
}

// ListScenes returns scene prompts keyed by scene name.
func (e Engine) ListScenes(ctx context.Context, project string) (map[string]string, error) {
	if _, err := e.requireProject(ctx, project); err != nil {
		return nil, err
	}
	scenes, err := e.Repo.ListScenes(ctx, project)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(scenes))
	for _, s := range scenes {
		out[s.Name] = s.Prompt
	}
	return out, nil
}

func (e Engine) CreateScene(ctx context.Context, project, name, prompt, actorID string) error {
	name = strings.TrimSpace(name)
	if err := validName("场景", name); err != nil {
		return err
	}
	if _, err := e.requireProject(ctx, project); err != nil {
		return err
	}
	if _, err := e.Repo.GetScene(ctx, project, name); err == nil {
		return failf("场景 %s 已存在", name)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if err := e.Repo.UpsertScene(ctx, project, domain.Scene{Name: name, Prompt: prompt}); err != nil {
		return err
	}
	return e.Events.Append(ctx, nil, "scene.create", project, "scene", name, actorID, nil)
}

func (e Engine) UpdateScene(ctx context.Context, project, name, prompt, actorID string) error {
	if err := required(project, name); err != nil {
		return err
	}
	if _, err := e.loadScene(ctx, project, name); err != nil {
		return err
	}
	if err := e.Repo.UpsertScene(ctx, project, domain.Scene{Name: name, Prompt: prompt}); err != nil {
		return err
	}
	return e.Events.Append(ctx, nil, "scene.update", project, "scene", name, actorID, nil)
}

func (e Engine) DeleteScene(ctx context.Context, project, name, actorID string) error {
	if err := required(project, name); err != nil {
		return err
	}
	if _, err := e.loadScene(ctx, project, name); err != nil {
		return err
	}
	if err := e.Repo.DeleteScene(ctx, project, name); err != nil {
		return err
	}
	return e.Events.Append(ctx, nil, "scene.delete", project, "scene", name, actorID, nil)
}

func (e Engine) loadScene(ctx context.Context, project, name string) (domain.Scene, error) {
	if _, err := e.requireProject(ctx, project); err != nil {
		return domain.Scene{}, err
	}
	s, err := e.Repo.GetScene(ctx, project, name)
	if errors.Is(err, repo.ErrNotFound) {
		return s, failf("场景 %s 不存在", name)
	}
	return s, err
}
