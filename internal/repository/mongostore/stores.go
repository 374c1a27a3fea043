package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"study-planner/internal/model"
	"study-planner/internal/repository"
)

type UserStore struct {
	coll *mongo.Collection
}

var _ repository.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	stampCreated(&user.CreatedAt, &user.UpdatedAt)
	if _, err := s.coll.InsertOne(ctx, toUserDoc(*user)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (model.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return model.User{}, notFound("find user", err)
	}
	return doc.toModel(), nil
}

func (s *UserStore) GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&doc); err != nil {
		return model.User{}, notFound("find user by telegram id", err)
	}
	return doc.toModel(), nil
}

func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	doc := toUserDoc(*user)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, doc)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) ListAll(ctx context.Context) ([]model.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	docs, err := decodeAll[userDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

type AssignmentStore struct {
	coll *mongo.Collection
}

var _ repository.AssignmentStore = (*AssignmentStore)(nil)

func (s *AssignmentStore) Create(ctx context.Context, a *model.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	stampCreated(&a.CreatedAt, &a.UpdatedAt)
	if _, err := s.coll.InsertOne(ctx, toAssignmentDoc(*a)); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (s *AssignmentStore) Get(ctx context.Context, id string) (model.Assignment, error) {
	var doc assignmentDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return model.Assignment{}, notFound("find assignment", err)
	}
	return doc.toModel(), nil
}

func (s *AssignmentStore) List(ctx context.Context, filter repository.AssignmentFilter) ([]model.Assignment, error) {
	q := bson.M{}
	if filter.UserID != "" {
		q["user_id"] = filter.UserID
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		q["status"] = bson.M{"$in": statuses}
	}
	if filter.Priority != "" {
		q["priority"] = string(filter.Priority)
	}
	if filter.Subject != "" {
		q["subject"] = filter.Subject
	}
	due := bson.M{}
	if filter.DueAfter != nil {
		due["$gte"] = *filter.DueAfter
	}
	if filter.DueBefore != nil {
		due["$lte"] = *filter.DueBefore
	}
	if len(due) > 0 {
		q["due_date"] = due
	}

	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: 1}})
	cur, err := s.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	docs, err := decodeAll[assignmentDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	out := make([]model.Assignment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *AssignmentStore) Update(ctx context.Context, a *model.Assignment) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, toAssignmentDoc(*a))
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *AssignmentStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type PlanStore struct {
	coll *mongo.Collection
}

var _ repository.PlanStore = (*PlanStore)(nil)

func (s *PlanStore) Create(ctx context.Context, plan *model.StudyPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	stampCreated(&plan.CreatedAt, &plan.UpdatedAt)
	if _, err := s.coll.InsertOne(ctx, toPlanDoc(*plan)); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (s *PlanStore) Get(ctx context.Context, id string) (model.StudyPlan, error) {
	var doc planDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return model.StudyPlan{}, notFound("find plan", err)
	}
	return doc.toModel(), nil
}

func (s *PlanStore) List(ctx context.Context, filter repository.PlanFilter) ([]model.StudyPlan, error) {
	q := bson.M{}
	if filter.UserID != "" {
		q["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	cur, err := s.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	docs, err := decodeAll[planDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	plans := make([]model.StudyPlan, 0, len(docs))
	for _, d := range docs {
		plans = append(plans, d.toModel())
	}
	return plans, nil
}

// Update replaces the plan only while the stored version is unchanged.
func (s *PlanStore) Update(ctx context.Context, plan *model.StudyPlan) error {
	doc := toPlanDoc(*plan)
	doc.Version = plan.Version + 1
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": plan.ID, "version": plan.Version}, doc)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.coll.CountDocuments(ctx, bson.M{"_id": plan.ID})
		if err != nil {
			return fmt.Errorf("check plan: %w", err)
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	plan.Version++
	return nil
}

func (s *PlanStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type NotificationStore struct {
	coll *mongo.Collection
}

var _ repository.NotificationStore = (*NotificationStore)(nil)

func (s *NotificationStore) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, toNotificationDoc(*n)); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) Get(ctx context.Context, id string) (model.Notification, error) {
	var doc notificationDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return model.Notification{}, notFound("find notification", err)
	}
	return doc.toModel(), nil
}

func (s *NotificationStore) List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	q := bson.M{"user_id": userID}
	if unreadOnly {
		q["read"] = false
	}
	cur, err := s.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	docs, err := decodeAll[notificationDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	out := make([]model.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string, at time.Time) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.D{
		{Key: "$set", Value: bson.D{{Key: "read", Value: true}, {Key: "read_at", Value: at}}},
	})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) Exists(ctx context.Context, userID, kind, entityID string, since time.Time) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"kind":       kind,
		"entity_id":  entityID,
		"created_at": bson.M{"$gte": since},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return n > 0, nil
}

func stampCreated(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
