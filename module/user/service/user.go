package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	usermodel "EduChat/module/user/model"
	"EduChat/tools/errs"
	jwtlib "EduChat/tools/security"
)

// Service is the user-identity collaborator the chat core consumes: resolve
// a credential to a principal, and confirm that referenced user ids exist.
type Service struct {
	coll *mongo.Collection
	opts jwtlib.Options
}

func NewService(db *mongo.Database, jwtOpts jwtlib.Options) *Service {
	u := usermodel.User{}
	return &Service{coll: db.Collection(u.GetTableName()), opts: jwtOpts}
}

// IssueToken signs a bearer credential for userID. Exposed for seeding and
// tests; production login belongs to the auth collaborator.
func (s *Service) IssueToken(userID string, ttl time.Duration) (string, time.Time, error) {
	opts := s.opts
	if ttl > 0 {
		opts.TTL = ttl
	}
	token, _, exp, err := jwtlib.Generate(opts, userID, []string{"chat"})
	return token, exp, err
}

// ResolvePrincipal verifies the credential and loads the live account.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (*usermodel.User, error) {
	claims, err := jwtlib.Verify(s.opts, token)
	if err != nil {
		return nil, errs.ErrTokenInvalid.WithDetail(err.Error())
	}
	uid := claims.UserID()
	if uid == "" {
		return nil, errs.ErrTokenInvalid.WithDetail("sub claim missing")
	}
	return s.GetByID(ctx, uid)
}

// GetByID loads a single non-deleted user.
func (s *Service) GetByID(ctx context.Context, userID string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID, "is_deleted": bson.M{"$ne": true}}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("user", "user_id", userID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureExist confirms every id resolves to a live account. Missing ids are
// an ErrArgs, matching the create/update endpoints' 400 contract.
func (s *Service) EnsureExist(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"user_id":    bson.M{"$in": dedup(userIDs)},
		"is_deleted": bson.M{"$ne": true},
	})
	if err != nil {
		return err
	}
	if n != int64(len(dedup(userIDs))) {
		return errs.ErrArgs.WithDetail("invalid participants")
	}
	return nil
}

// GetMany loads display snapshots for a set of ids, keyed by user id.
func (s *Service) GetMany(ctx context.Context, userIDs []string) (map[string]*usermodel.User, error) {
	out := make(map[string]*usermodel.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"user_id": bson.M{"$in": dedup(userIDs)}},
		options.Find().SetProjection(bson.M{"user_id": 1, "first_name": 1, "last_name": 1, "avatar": 1}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()
	for cur.Next(ctx) {
		var u usermodel.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.UserID] = &u
	}
	return out, cur.Err()
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
