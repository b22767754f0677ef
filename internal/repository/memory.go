package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/filmorate/internal/model"
)

// MemoryStore はインメモリのデータストア。
// 開発・テスト用のシングルスレッド利用を想定しており、スレッドセーフではない。
// ジャンル・MPAレーティングはマイグレーションと同じ内容でシードされる。
type MemoryStore struct {
	users       map[string]*model.User
	userOrder   []string
	friendships map[string]map[string]model.FriendshipStatus

	films     map[string]*model.Film
	filmOrder []string
	likes     map[string]map[string]bool

	directors     map[string]*model.Director
	directorOrder []string

	genres []model.Genre
	mpa    []model.MPA

	reviews     map[string]*model.Review
	reviewOrder []string
	reactions   map[string]map[string]bool

	events []*model.Event
}

// NewMemoryStore はシード済みのMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       map[string]*model.User{},
		friendships: map[string]map[string]model.FriendshipStatus{},
		films:       map[string]*model.Film{},
		likes:       map[string]map[string]bool{},
		directors:   map[string]*model.Director{},
		genres: []model.Genre{
			{ID: 1, Name: "Comedy"},
			{ID: 2, Name: "Drama"},
			{ID: 3, Name: "Cartoon"},
			{ID: 4, Name: "Thriller"},
			{ID: 5, Name: "Documentary"},
			{ID: 6, Name: "Action"},
		},
		mpa: []model.MPA{
			{ID: 1, Name: "G"},
			{ID: 2, Name: "PG"},
			{ID: 3, Name: "PG-13"},
			{ID: 4, Name: "R"},
			{ID: 5, Name: "NC-17"},
		},
		reviews:   map[string]*model.Review{},
		reactions: map[string]map[string]bool{},
	}
}

// MemoryUserRepo はMemoryStoreを使用したユーザーリポジトリ。
type MemoryUserRepo struct {
	store *MemoryStore
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo(store *MemoryStore) *MemoryUserRepo {
	return &MemoryUserRepo{store: store}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

// Create はユーザーを作成する。
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.store.users[user.ID] = cloneUser(user)
	r.store.userOrder = append(r.store.userOrder, user.ID)
	return nil
}

// Update はユーザーの可変フィールドを全置換で更新する。
func (r *MemoryUserRepo) Update(ctx context.Context, user *model.User) error {
	if _, ok := r.store.users[user.ID]; !ok {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	existing := r.store.users[user.ID]
	updated := cloneUser(user)
	updated.CreatedAt = existing.CreatedAt
	r.store.users[user.ID] = updated
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(user), nil
}

// ListAll は全ユーザーを作成順で返す。
func (r *MemoryUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}
	for _, id := range r.store.userOrder {
		if user, ok := r.store.users[id]; ok {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

// DeleteByID は指定IDのユーザーを削除し、関連データも併せて削除する。
func (r *MemoryUserRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.store.users[id]; !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	delete(r.store.users, id)

	delete(r.store.friendships, id)
	for _, edges := range r.store.friendships {
		delete(edges, id)
	}
	for _, likers := range r.store.likes {
		delete(likers, id)
	}
	for reviewID, review := range r.store.reviews {
		if review.UserID == id {
			delete(r.store.reviews, reviewID)
			delete(r.store.reactions, reviewID)
		}
	}
	for _, reactions := range r.store.reactions {
		delete(reactions, id)
	}

	remaining := r.store.events[:0]
	for _, event := range r.store.events {
		if event.UserID != id {
			remaining = append(remaining, event)
		}
	}
	r.store.events = remaining

	return nil
}

// AddFriend はuserID → friendIDの有向フレンドエッジを追加する。
// 逆向きのエッジが既に存在する場合は両エッジをconfirmedにする。
func (r *MemoryUserRepo) AddFriend(ctx context.Context, userID, friendID string) error {
	if r.store.friendships[userID] == nil {
		r.store.friendships[userID] = map[string]model.FriendshipStatus{}
	}
	if _, ok := r.store.friendships[userID][friendID]; !ok {
		r.store.friendships[userID][friendID] = model.FriendshipPending
	}
	if _, ok := r.store.friendships[friendID][userID]; ok {
		r.store.friendships[userID][friendID] = model.FriendshipConfirmed
		r.store.friendships[friendID][userID] = model.FriendshipConfirmed
	}
	return nil
}

// DeleteFriend はuserID → friendIDのエッジを削除する。
// 逆向きのエッジが残る場合はpendingに戻す。
func (r *MemoryUserRepo) DeleteFriend(ctx context.Context, userID, friendID string) (bool, error) {
	edges, ok := r.store.friendships[userID]
	if !ok {
		return false, nil
	}
	if _, ok := edges[friendID]; !ok {
		return false, nil
	}
	delete(edges, friendID)
	if reverse, ok := r.store.friendships[friendID]; ok {
		if _, ok := reverse[userID]; ok {
			reverse[userID] = model.FriendshipPending
		}
	}
	return true, nil
}

// ListFriends はuserIDから出ているエッジの先のユーザー一覧をID昇順で返す。
func (r *MemoryUserRepo) ListFriends(ctx context.Context, userID string) ([]*model.User, error) {
	friends := []*model.User{}
	for friendID := range r.store.friendships[userID] {
		if user, ok := r.store.users[friendID]; ok {
			friends = append(friends, cloneUser(user))
		}
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].ID < friends[j].ID })
	return friends, nil
}

// ListCommonFriends は両ユーザーのフレンド集合の積をID昇順で返す。
func (r *MemoryUserRepo) ListCommonFriends(ctx context.Context, userID, otherID string) ([]*model.User, error) {
	common := []*model.User{}
	for friendID := range r.store.friendships[userID] {
		if _, ok := r.store.friendships[otherID][friendID]; !ok {
			continue
		}
		if user, ok := r.store.users[friendID]; ok {
			common = append(common, cloneUser(user))
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].ID < common[j].ID })
	return common, nil
}

// MemoryFilmRepo はMemoryStoreを使用した映画リポジトリ。
type MemoryFilmRepo struct {
	store *MemoryStore
}

// NewMemoryFilmRepo はMemoryFilmRepoを生成する。
func NewMemoryFilmRepo(store *MemoryStore) *MemoryFilmRepo {
	return &MemoryFilmRepo{store: store}
}

// hydrateFilm は保存済みの映画からMPA・ジャンル・監督の名前と
// いいね数を解決したコピーを返す。
func (r *MemoryFilmRepo) hydrateFilm(film *model.Film) *model.Film {
	c := *film

	for _, mpa := range r.store.mpa {
		if mpa.ID == c.MPA.ID {
			c.MPA = mpa
			break
		}
	}

	genres := []model.Genre{}
	for _, genre := range film.Genres {
		for _, seeded := range r.store.genres {
			if seeded.ID == genre.ID {
				genres = append(genres, seeded)
				break
			}
		}
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
	c.Genres = genres

	directors := []model.Director{}
	for _, director := range film.Directors {
		if current, ok := r.store.directors[director.ID]; ok {
			directors = append(directors, *current)
		}
	}
	sort.Slice(directors, func(i, j int) bool { return directors[i].ID < directors[j].ID })
	c.Directors = directors

	c.LikeCount = len(r.store.likes[film.ID])
	return &c
}

// Create は映画を作成する。
func (r *MemoryFilmRepo) Create(ctx context.Context, film *model.Film) error {
	c := *film
	r.store.films[film.ID] = &c
	r.store.filmOrder = append(r.store.filmOrder, film.ID)
	return nil
}

// Update は映画の可変フィールドと関連付けを全置換する。
func (r *MemoryFilmRepo) Update(ctx context.Context, film *model.Film) error {
	existing, ok := r.store.films[film.ID]
	if !ok {
		return fmt.Errorf("film not found: %s", film.ID)
	}
	c := *film
	c.CreatedAt = existing.CreatedAt
	r.store.films[film.ID] = &c
	return nil
}

// FindByID は指定IDの映画を取得する。見つからない場合はnilを返す。
func (r *MemoryFilmRepo) FindByID(ctx context.Context, id string) (*model.Film, error) {
	film, ok := r.store.films[id]
	if !ok {
		return nil, nil
	}
	return r.hydrateFilm(film), nil
}

// ListAll は全映画を作成順で返す。
func (r *MemoryFilmRepo) ListAll(ctx context.Context) ([]*model.Film, error) {
	films := []*model.Film{}
	for _, id := range r.store.filmOrder {
		if film, ok := r.store.films[id]; ok {
			films = append(films, r.hydrateFilm(film))
		}
	}
	return films, nil
}

// DeleteByID は指定IDの映画を削除し、いいね・レビューも併せて削除する。
func (r *MemoryFilmRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.store.films[id]; !ok {
		return fmt.Errorf("film not found: %s", id)
	}
	delete(r.store.films, id)
	delete(r.store.likes, id)
	for reviewID, review := range r.store.reviews {
		if review.FilmID == id {
			delete(r.store.reviews, reviewID)
			delete(r.store.reactions, reviewID)
		}
	}
	return nil
}

// AddLike は(filmID, userID)のいいねを追加する。既存の場合はfalseを返す。
func (r *MemoryFilmRepo) AddLike(ctx context.Context, filmID, userID string) (bool, error) {
	if r.store.likes[filmID] == nil {
		r.store.likes[filmID] = map[string]bool{}
	}
	if r.store.likes[filmID][userID] {
		return false, nil
	}
	r.store.likes[filmID][userID] = true
	return true, nil
}

// DeleteLike は(filmID, userID)のいいねを削除する。存在しない場合はfalseを返す。
func (r *MemoryFilmRepo) DeleteLike(ctx context.Context, filmID, userID string) (bool, error) {
	if !r.store.likes[filmID][userID] {
		return false, nil
	}
	delete(r.store.likes[filmID], userID)
	return true, nil
}

// sortByLikes はいいね数降順、同数の場合はID昇順でソートする。
func sortByLikes(films []*model.Film) {
	sort.Slice(films, func(i, j int) bool {
		if films[i].LikeCount != films[j].LikeCount {
			return films[i].LikeCount > films[j].LikeCount
		}
		return films[i].ID < films[j].ID
	})
}

// ListTop はいいね数降順の映画一覧を返す。
func (r *MemoryFilmRepo) ListTop(ctx context.Context, count, genreID, year int) ([]*model.Film, error) {
	films := []*model.Film{}
	for _, film := range r.store.films {
		hydrated := r.hydrateFilm(film)
		if genreID != 0 {
			found := false
			for _, genre := range hydrated.Genres {
				if genre.ID == genreID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if year != 0 && hydrated.ReleaseDate.Year() != year {
			continue
		}
		films = append(films, hydrated)
	}
	sortByLikes(films)
	if len(films) > count {
		films = films[:count]
	}
	return films, nil
}

// ListCommon は両ユーザーがいいねした映画をいいね数の降順で返す。
func (r *MemoryFilmRepo) ListCommon(ctx context.Context, userID, friendID string) ([]*model.Film, error) {
	films := []*model.Film{}
	for filmID, likers := range r.store.likes {
		if !likers[userID] || !likers[friendID] {
			continue
		}
		if film, ok := r.store.films[filmID]; ok {
			films = append(films, r.hydrateFilm(film))
		}
	}
	sortByLikes(films)
	return films, nil
}

// Search はタイトル・監督名の部分一致（大文字小文字を区別しない）で映画を検索する。
func (r *MemoryFilmRepo) Search(ctx context.Context, query string, byTitle, byDirector bool) ([]*model.Film, error) {
	needle := strings.ToLower(query)
	films := []*model.Film{}
	for _, film := range r.store.films {
		hydrated := r.hydrateFilm(film)
		matched := false
		if byTitle && strings.Contains(strings.ToLower(hydrated.Name), needle) {
			matched = true
		}
		if !matched && byDirector {
			for _, director := range hydrated.Directors {
				if strings.Contains(strings.ToLower(director.Name), needle) {
					matched = true
					break
				}
			}
		}
		if matched {
			films = append(films, hydrated)
		}
	}
	sortByLikes(films)
	return films, nil
}

// ListByDirector は指定監督の映画を公開年昇順またはいいね数降順で返す。
func (r *MemoryFilmRepo) ListByDirector(ctx context.Context, directorID string, sort model.DirectorSort) ([]*model.Film, error) {
	films := []*model.Film{}
	for _, film := range r.store.films {
		for _, director := range film.Directors {
			if director.ID == directorID {
				films = append(films, r.hydrateFilm(film))
				break
			}
		}
	}
	if sort == model.DirectorSortLikes {
		sortByLikes(films)
	} else {
		sortByReleaseDate(films)
	}
	return films, nil
}

func sortByReleaseDate(films []*model.Film) {
	sort.Slice(films, func(i, j int) bool {
		if !films[i].ReleaseDate.Equal(films[j].ReleaseDate) {
			return films[i].ReleaseDate.Before(films[j].ReleaseDate)
		}
		return films[i].ID < films[j].ID
	})
}

// ListRecommendations は協調フィルタリングによる推薦映画を返す。
func (r *MemoryFilmRepo) ListRecommendations(ctx context.Context, userID string) ([]*model.Film, error) {
	mine := map[string]bool{}
	for filmID, likers := range r.store.likes {
		if likers[userID] {
			mine[filmID] = true
		}
	}

	neighbors := map[string]bool{}
	for filmID := range mine {
		for liker := range r.store.likes[filmID] {
			if liker != userID {
				neighbors[liker] = true
			}
		}
	}

	recommended := map[string]bool{}
	for filmID, likers := range r.store.likes {
		if mine[filmID] {
			continue
		}
		for neighbor := range neighbors {
			if likers[neighbor] {
				recommended[filmID] = true
				break
			}
		}
	}

	films := []*model.Film{}
	for filmID := range recommended {
		if film, ok := r.store.films[filmID]; ok {
			films = append(films, r.hydrateFilm(film))
		}
	}
	sortByLikes(films)
	return films, nil
}

// MemoryDirectorRepo はMemoryStoreを使用した監督リポジトリ。
type MemoryDirectorRepo struct {
	store *MemoryStore
}

// NewMemoryDirectorRepo はMemoryDirectorRepoを生成する。
func NewMemoryDirectorRepo(store *MemoryStore) *MemoryDirectorRepo {
	return &MemoryDirectorRepo{store: store}
}

// Create は監督を作成する。
func (r *MemoryDirectorRepo) Create(ctx context.Context, director *model.Director) error {
	c := *director
	r.store.directors[director.ID] = &c
	r.store.directorOrder = append(r.store.directorOrder, director.ID)
	return nil
}

// Update は監督名を更新する。
func (r *MemoryDirectorRepo) Update(ctx context.Context, director *model.Director) error {
	existing, ok := r.store.directors[director.ID]
	if !ok {
		return fmt.Errorf("director not found: %s", director.ID)
	}
	c := *director
	c.CreatedAt = existing.CreatedAt
	r.store.directors[director.ID] = &c
	return nil
}

// FindByID は指定IDの監督を取得する。見つからない場合はnilを返す。
func (r *MemoryDirectorRepo) FindByID(ctx context.Context, id string) (*model.Director, error) {
	director, ok := r.store.directors[id]
	if !ok {
		return nil, nil
	}
	c := *director
	return &c, nil
}

// ListAll は全監督を作成順で返す。
func (r *MemoryDirectorRepo) ListAll(ctx context.Context) ([]*model.Director, error) {
	directors := []*model.Director{}
	for _, id := range r.store.directorOrder {
		if director, ok := r.store.directors[id]; ok {
			c := *director
			directors = append(directors, &c)
		}
	}
	return directors, nil
}

// DeleteByID は指定IDの監督を削除する。映画との関連付けのみ外れ、映画本体は残る。
func (r *MemoryDirectorRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.store.directors[id]; !ok {
		return fmt.Errorf("director not found: %s", id)
	}
	delete(r.store.directors, id)
	for _, film := range r.store.films {
		kept := film.Directors[:0]
		for _, director := range film.Directors {
			if director.ID != id {
				kept = append(kept, director)
			}
		}
		film.Directors = kept
	}
	return nil
}

// MemoryGenreRepo はMemoryStoreを使用したジャンル参照リポジトリ。
type MemoryGenreRepo struct {
	store *MemoryStore
}

// NewMemoryGenreRepo はMemoryGenreRepoを生成する。
func NewMemoryGenreRepo(store *MemoryStore) *MemoryGenreRepo {
	return &MemoryGenreRepo{store: store}
}

// FindByID は指定IDのジャンルを取得する。見つからない場合はnilを返す。
func (r *MemoryGenreRepo) FindByID(ctx context.Context, id int) (*model.Genre, error) {
	for _, genre := range r.store.genres {
		if genre.ID == id {
			c := genre
			return &c, nil
		}
	}
	return nil, nil
}

// ListAll は全ジャンルをID昇順で返す。
func (r *MemoryGenreRepo) ListAll(ctx context.Context) ([]*model.Genre, error) {
	genres := make([]*model.Genre, len(r.store.genres))
	for i := range r.store.genres {
		c := r.store.genres[i]
		genres[i] = &c
	}
	return genres, nil
}

// MemoryMPARepo はMemoryStoreを使用したMPAレーティング参照リポジトリ。
type MemoryMPARepo struct {
	store *MemoryStore
}

// NewMemoryMPARepo はMemoryMPARepoを生成する。
func NewMemoryMPARepo(store *MemoryStore) *MemoryMPARepo {
	return &MemoryMPARepo{store: store}
}

// FindByID は指定IDのMPAレーティングを取得する。見つからない場合はnilを返す。
func (r *MemoryMPARepo) FindByID(ctx context.Context, id int) (*model.MPA, error) {
	for _, mpa := range r.store.mpa {
		if mpa.ID == id {
			c := mpa
			return &c, nil
		}
	}
	return nil, nil
}

// ListAll は全MPAレーティングをID昇順で返す。
func (r *MemoryMPARepo) ListAll(ctx context.Context) ([]*model.MPA, error) {
	ratings := make([]*model.MPA, len(r.store.mpa))
	for i := range r.store.mpa {
		c := r.store.mpa[i]
		ratings[i] = &c
	}
	return ratings, nil
}

// MemoryReviewRepo はMemoryStoreを使用したレビューリポジトリ。
type MemoryReviewRepo struct {
	store *MemoryStore
}

// NewMemoryReviewRepo はMemoryReviewRepoを生成する。
func NewMemoryReviewRepo(store *MemoryStore) *MemoryReviewRepo {
	return &MemoryReviewRepo{store: store}
}

// useful はリアクションからUsefulスコアを導出する。
func (r *MemoryReviewRepo) useful(reviewID string) int {
	score := 0
	for _, isLike := range r.store.reactions[reviewID] {
		if isLike {
			score++
		} else {
			score--
		}
	}
	return score
}

func (r *MemoryReviewRepo) hydrateReview(review *model.Review) *model.Review {
	c := *review
	c.Useful = r.useful(review.ID)
	return &c
}

// Create はレビューを作成する。
func (r *MemoryReviewRepo) Create(ctx context.Context, review *model.Review) error {
	c := *review
	r.store.reviews[review.ID] = &c
	r.store.reviewOrder = append(r.store.reviewOrder, review.ID)
	return nil
}

// Update はレビューの本文と評価フラグのみを更新する。
func (r *MemoryReviewRepo) Update(ctx context.Context, review *model.Review) error {
	existing, ok := r.store.reviews[review.ID]
	if !ok {
		return fmt.Errorf("review not found: %s", review.ID)
	}
	existing.Content = review.Content
	existing.IsPositive = review.IsPositive
	existing.UpdatedAt = review.UpdatedAt
	return nil
}

// FindByID は指定IDのレビューをUsefulスコア付きで取得する。
// 見つからない場合はnilを返す。
func (r *MemoryReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	review, ok := r.store.reviews[id]
	if !ok {
		return nil, nil
	}
	return r.hydrateReview(review), nil
}

// DeleteByID は指定IDのレビューとそのリアクションを削除する。
func (r *MemoryReviewRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.store.reviews[id]; !ok {
		return fmt.Errorf("review not found: %s", id)
	}
	delete(r.store.reviews, id)
	delete(r.store.reactions, id)
	return nil
}

// ListByFilm は指定映画のレビューをUseful降順で最大count件返す。
// filmIDが空文字列の場合は全映画のレビューを対象とする。
func (r *MemoryReviewRepo) ListByFilm(ctx context.Context, filmID string, count int) ([]*model.Review, error) {
	reviews := []*model.Review{}
	for _, id := range r.store.reviewOrder {
		review, ok := r.store.reviews[id]
		if !ok {
			continue
		}
		if filmID != "" && review.FilmID != filmID {
			continue
		}
		reviews = append(reviews, r.hydrateReview(review))
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Useful > reviews[j].Useful
	})
	if len(reviews) > count {
		reviews = reviews[:count]
	}
	return reviews, nil
}

// UpsertReaction は(reviewID, userID)のリアクションを冪等にUPSERTする。
func (r *MemoryReviewRepo) UpsertReaction(ctx context.Context, reviewID, userID string, isLike bool) error {
	if r.store.reactions[reviewID] == nil {
		r.store.reactions[reviewID] = map[string]bool{}
	}
	r.store.reactions[reviewID][userID] = isLike
	return nil
}

// DeleteReaction は指定種別のリアクションを削除する。
// 一致するリアクションが存在しない場合はfalseを返す。
func (r *MemoryReviewRepo) DeleteReaction(ctx context.Context, reviewID, userID string, isLike bool) (bool, error) {
	current, ok := r.store.reactions[reviewID][userID]
	if !ok || current != isLike {
		return false, nil
	}
	delete(r.store.reactions[reviewID], userID)
	return true, nil
}

// MemoryEventRepo はMemoryStoreを使用したフィードイベントリポジトリ。
type MemoryEventRepo struct {
	store *MemoryStore
}

// NewMemoryEventRepo はMemoryEventRepoを生成する。
func NewMemoryEventRepo(store *MemoryStore) *MemoryEventRepo {
	return &MemoryEventRepo{store: store}
}

// Create はフィードイベントを追記する。
func (r *MemoryEventRepo) Create(ctx context.Context, event *model.Event) error {
	c := *event
	r.store.events = append(r.store.events, &c)
	return nil
}

// ListByUserID は指定ユーザーのイベントを挿入順で全件返す。
func (r *MemoryEventRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Event, error) {
	events := []*model.Event{}
	for _, event := range r.store.events {
		if event.UserID == userID {
			c := *event
			events = append(events, &c)
		}
	}
	return events, nil
}

// compile-time interface checks
var (
	_ UserRepository     = (*MemoryUserRepo)(nil)
	_ FilmRepository     = (*MemoryFilmRepo)(nil)
	_ DirectorRepository = (*MemoryDirectorRepo)(nil)
	_ GenreRepository    = (*MemoryGenreRepo)(nil)
	_ MPARepository      = (*MemoryMPARepo)(nil)
	_ ReviewRepository   = (*MemoryReviewRepo)(nil)
	_ EventRepository    = (*MemoryEventRepo)(nil)
)
