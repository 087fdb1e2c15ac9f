package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	fixtureSeq++
	return fixtureSeq
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := nextSeq()
	email := fmt.Sprintf("test_%d_%d@example.com", time.Now().UnixNano(), seq)
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:     fmt.Sprintf("testuser_%d_%d", time.Now().UnixNano()%100000, seq),
		Email:        &email,
		PasswordHash: &passwordHash,
		Role:         model.RoleLearner,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// TestEducator 创建测试讲师
func TestEducator(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	return TestUser(t, db, WithRole(model.RoleEducator))
}

// TestMedia 创建测试媒体
func TestMedia(t *testing.T, db *gorm.DB, educatorID int64, opts ...func(*model.Media)) *model.Media {
	t.Helper()

	media := &model.Media{
		EducatorID: educatorID,
		Title:      fmt.Sprintf("Test Media %d", nextSeq()),
		Duration:   600,
		Status:     "published",
	}

	for _, opt := range opts {
		opt(media)
	}

	if err := db.Create(media).Error; err != nil {
		t.Fatalf("Failed to create test media: %v", err)
	}

	return media
}

// WithDuration 设置媒体时长
func WithDuration(seconds float64) func(*model.Media) {
	return func(m *model.Media) {
		m.Duration = seconds
	}
}

// TestPlan 创建测试订阅
func TestPlan(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.SubscriptionPlan)) *model.SubscriptionPlan {
	t.Helper()

	started := time.Now().AddDate(0, -1, 0)
	expires := time.Now().AddDate(0, 1, 0)
	plan := &model.SubscriptionPlan{
		UserID:        userID,
		PlanType:      model.PlanMonthly,
		Price:         100,
		MonthlyAmount: 100,
		Status:        model.SubStatusActive,
		StartedAt:     started,
		ExpiresAt:     &expires,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// WithPlanWindow 设置订阅生效区间
func WithPlanWindow(started time.Time, expires *time.Time) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.StartedAt = started
		p.ExpiresAt = expires
	}
}

// WithPlanStatus 设置订阅状态
func WithPlanStatus(status string) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.Status = status
	}
}

// WithCancellation 将订阅标记为在指定时刻取消
func WithCancellation(at time.Time) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.Status = model.SubStatusCancelled
		p.CancelledAt = &at
	}
}

// WithMonthlyAmount 设置月度等价金额
func WithMonthlyAmount(amount float64) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.Price = amount
		p.MonthlyAmount = amount
	}
}

// TestPayment 创建测试支付记录
func TestPayment(t *testing.T, db *gorm.DB, userID, planID int64, amount float64, paidAt time.Time) *model.SubscriptionPayment {
	t.Helper()

	payment := &model.SubscriptionPayment{
		UserID:        userID,
		PlanID:        planID,
		Amount:        amount,
		MonthlyAmount: amount,
		PaidAt:        paidAt,
		Status:        model.PaymentSuccess,
	}

	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}

	return payment
}

// TestPlay 创建测试播放记录
func TestPlay(t *testing.T, db *gorm.DB, userID, mediaID, educatorID int64, opts ...func(*model.Play)) *model.Play {
	t.Helper()

	play := &model.Play{
		UserID:          userID,
		MediaID:         mediaID,
		EducatorID:      educatorID,
		DurationWatched: 600,
		MediaDuration:   600,
		WatchRatio:      1.0,
		SessionID:       fmt.Sprintf("session_%d", nextSeq()),
		IPAddress:       "192.0.2.1",
		CreatedAt:       time.Now(),
	}

	for _, opt := range opts {
		opt(play)
	}

	if err := db.Create(play).Error; err != nil {
		t.Fatalf("Failed to create test play: %v", err)
	}

	return play
}

// WithWatchRatio 设置观看比例
func WithWatchRatio(ratio float64) func(*model.Play) {
	return func(p *model.Play) {
		p.WatchRatio = ratio
		p.DurationWatched = p.MediaDuration * ratio
	}
}

// WithPlayTime 设置播放时间
func WithPlayTime(at time.Time) func(*model.Play) {
	return func(p *model.Play) {
		p.CreatedAt = at
	}
}

// WithPlayIP 设置来源 IP
func WithPlayIP(ip string) func(*model.Play) {
	return func(p *model.Play) {
		p.IPAddress = ip
	}
}

// TestDownload 创建测试下载记录
func TestDownload(t *testing.T, db *gorm.DB, userID, mediaID, educatorID int64, at time.Time) *model.OfflineDownload {
	t.Helper()

	dl := &model.OfflineDownload{
		UserID:     userID,
		MediaID:    mediaID,
		EducatorID: educatorID,
		CreatedAt:  at,
	}

	if err := db.Create(dl).Error; err != nil {
		t.Fatalf("Failed to create test download: %v", err)
	}

	return dl
}

// TestLiveClass 创建测试直播课
func TestLiveClass(t *testing.T, db *gorm.DB, educatorID int64) *model.LiveClass {
	t.Helper()

	class := &model.LiveClass{
		EducatorID: educatorID,
		Title:      fmt.Sprintf("Test Live Class %d", nextSeq()),
		StartsAt:   time.Now(),
	}

	if err := db.Create(class).Error; err != nil {
		t.Fatalf("Failed to create test live class: %v", err)
	}

	return class
}

// TestLiveAttendee 创建测试直播出席记录
func TestLiveAttendee(t *testing.T, db *gorm.DB, userID, classID, educatorID int64, at time.Time) *model.LiveClassAttendee {
	t.Helper()

	attendee := &model.LiveClassAttendee{
		UserID:      userID,
		LiveClassID: classID,
		EducatorID:  educatorID,
		CreatedAt:   at,
	}

	if err := db.Create(attendee).Error; err != nil {
		t.Fatalf("Failed to create test live attendee: %v", err)
	}

	return attendee
}

// TestBalance 创建讲师余额记录
func TestBalance(t *testing.T, db *gorm.DB, educatorID int64, earned, withdrawn float64) *model.EducatorBalance {
	t.Helper()

	balance := &model.EducatorBalance{
		EducatorID:  educatorID,
		TotalEarned: earned,
		Withdrawn:   withdrawn,
		Available:   earned - withdrawn,
	}

	if err := db.Create(balance).Error; err != nil {
		t.Fatalf("Failed to create test balance: %v", err)
	}

	return balance
}
