package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/internal/repository"
	"github.com/severusraj/gradverify-mono/internal/verification"
)

// artifactSnapshot 某个学生当前持久化的全部审核材料
type artifactSnapshot struct {
	psa    *model.Document
	photo  *model.Document
	awards []model.Award
}

// loadSnapshot 总是从存储读取最新数据，不使用调用方手中的旧对象
func loadSnapshot(ctx context.Context, repo *repository.Repository, studentProfileID string) (*artifactSnapshot, error) {
	psa, err := latestDocument(ctx, repo, studentProfileID, model.DocumentPSA)
	if err != nil {
		return nil, err
	}
	photo, err := latestDocument(ctx, repo, studentProfileID, model.DocumentPhoto)
	if err != nil {
		return nil, err
	}
	awards, err := repo.Award.ListByStudent(ctx, studentProfileID)
	if err != nil {
		return nil, err
	}
	return &artifactSnapshot{psa: psa, photo: photo, awards: awards}, nil
}

func (a *artifactSnapshot) statuses() verification.Statuses {
	return verification.Recompute(a.psa, a.photo, a.awards)
}

func latestDocument(ctx context.Context, repo *repository.Repository, studentProfileID string, t model.DocumentType) (*model.Document, error) {
	doc, err := repo.Document.GetLatestByStudentAndType(ctx, studentProfileID, t)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// recomputeAndSave 重算并写回档案缓存；调用方需已持有档案行锁（或处于无事务的测试环境）。
// 写入失败时 profile 保持原值。
func recomputeAndSave(ctx context.Context, repo *repository.Repository, profile *model.StudentProfile) (verification.Statuses, error) {
	snap, err := loadSnapshot(ctx, repo, profile.StudentProfileID)
	if err != nil {
		return verification.Statuses{}, err
	}
	next := snap.statuses()

	updated := *profile
	next.ApplyTo(&updated)
	if err := repo.StudentProfile.UpdateStatuses(ctx, &updated); err != nil {
		return verification.Statuses{}, err
	}
	next.ApplyTo(profile)
	return next, nil
}
