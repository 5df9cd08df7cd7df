package repository

import (
	"context"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassroomRepository interface {
	Create(ctx context.Context, room *entity.ClassRoom) error
	// FindByID loads the classroom with its teacher and students.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ClassRoom, error)
	FindByCode(ctx context.Context, code string) (*entity.ClassRoom, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	AddStudent(ctx context.Context, roomID, userID uuid.UUID) error
	RemoveStudent(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	FindJoined(ctx context.Context, userID uuid.UUID) ([]entity.ClassRoom, error)
	FindTaught(ctx context.Context, userID uuid.UUID) ([]entity.ClassRoom, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreatePost(ctx context.Context, post *entity.ClassPost) error
	FindPosts(ctx context.Context, roomID uuid.UUID) ([]entity.ClassPost, error)
	// FindHomePosts returns posts of every classroom the user joined or teaches.
	FindHomePosts(ctx context.Context, userID uuid.UUID, limit int) ([]entity.ClassPost, error)
}

type classroomRepository struct {
	db *gorm.DB
}

func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) Create(ctx context.Context, room *entity.ClassRoom) error {
	return r.db.WithContext(ctx).Omit("Teacher", "Students").Create(room).Error
}

func (r *classroomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ClassRoom, error) {
	var room entity.ClassRoom
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Students", func(db *gorm.DB) *gorm.DB {
			return db.Order("first_name asc")
		}).
		First(&room, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *classroomRepository) FindByCode(ctx context.Context, code string) (*entity.ClassRoom, error) {
	var room entity.ClassRoom
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Students").
		Where("code = ?", code).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *classroomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ClassRoom{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *classroomRepository) AddStudent(ctx context.Context, roomID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO classroom_students (class_room_id, user_id) VALUES (?, ?)", roomID, userID,
	).Error
}

func (r *classroomRepository) RemoveStudent(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		"DELETE FROM classroom_students WHERE class_room_id = ? AND user_id = ?", roomID, userID,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *classroomRepository) FindJoined(ctx context.Context, userID uuid.UUID) ([]entity.ClassRoom, error) {
	var rooms []entity.ClassRoom
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Joins("JOIN classroom_students cs ON cs.class_room_id = class_rooms.id").
		Where("cs.user_id = ?", userID).
		Order("class_rooms.name asc").
		Find(&rooms).Error
	return rooms, err
}

func (r *classroomRepository) FindTaught(ctx context.Context, userID uuid.UUID) ([]entity.ClassRoom, error) {
	var rooms []entity.ClassRoom
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("teacher_id = ?", userID).
		Order("name asc").
		Find(&rooms).Error
	return rooms, err
}

// Delete removes the classroom and everything scoped to it in one transaction. Users are
// never touched.
func (r *classroomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		polls := tx.Model(&entity.Poll{}).Select("id").Where("class_room_id = ?", id)
		options := tx.Model(&entity.PollOption{}).Select("id").Where("poll_id IN (?)", polls)

		if err := tx.Where("option_id IN (?)", options).Delete(&entity.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id IN (?)", polls).Delete(&entity.PollOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_room_id = ?", id).Delete(&entity.Poll{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_room_id = ?", id).Delete(&entity.ClassChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_room_id = ?", id).Delete(&entity.ClassPost{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM classroom_students WHERE class_room_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.ClassRoom{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *classroomRepository) CreatePost(ctx context.Context, post *entity.ClassPost) error {
	return r.db.WithContext(ctx).Omit("User").Create(post).Error
}

func (r *classroomRepository) FindPosts(ctx context.Context, roomID uuid.UUID) ([]entity.ClassPost, error) {
	var posts []entity.ClassPost
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("class_room_id = ?", roomID).
		Order("created_at desc, id desc").
		Find(&posts).Error
	return posts, err
}

func (r *classroomRepository) FindHomePosts(ctx context.Context, userID uuid.UUID, limit int) ([]entity.ClassPost, error) {
	joined := r.db.Table("classroom_students").Select("class_room_id").Where("user_id = ?", userID)
	taught := r.db.Model(&entity.ClassRoom{}).Select("id").Where("teacher_id = ?", userID)

	var posts []entity.ClassPost
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("class_room_id IN (?) OR class_room_id IN (?)", joined, taught).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}
