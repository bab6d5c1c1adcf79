package repo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-library-service/internal/domain"
	bookmodel "go-library-service/internal/feature/book"
	loanmodel "go-library-service/internal/feature/loan"
	usermodel "go-library-service/internal/feature/user"
)

// 集成测试：需要一个可用的 PostgreSQL，DSN 通过 TEST_DB_DSN 传入，
// 未设置时整组跳过
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping ledger integration tests")
	}
	return openTestDB(t, postgres.Open(dsn))
}

// 两种支持的驱动都要能维持台账不变式，MySQL 用 TEST_MYSQL_DSN 单独开关
func setupMySQL(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set, skipping MySQL ledger tests")
	}
	return openTestDB(t, mysql.Open(dsn))
}

func openTestDB(t *testing.T, dialector gorm.Dialector) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&usermodel.UserModel{},
		&bookmodel.BookModel{},
		&loanmodel.LoanModel{},
	))

	cleanup := func() {
		db.Exec("DELETE FROM user_book_history")
		db.Exec("DELETE FROM books")
		db.Exec("DELETE FROM users")
	}
	cleanup()
	t.Cleanup(cleanup)
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, ledger *LoanLedger, email string) *domain.User {
	t.Helper()
	r := NewUserRepo(db, ledger)
	now := time.Now()
	u := &domain.User{ID: uuid.NewString(), Name: "Tester", Email: email, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.Create(context.Background(), u))
	return u
}

func mustCreateBook(t *testing.T, db *gorm.DB, ledger *LoanLedger, name string) *domain.Book {
	t.Helper()
	r := NewBookRepo(db, ledger)
	now := time.Now()
	b := &domain.Book{Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.Create(context.Background(), b))
	require.NotZero(t, b.ID)
	return b
}

func openLoanCount(t *testing.T, db *gorm.DB, bookID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&loanmodel.LoanModel{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&n).Error)
	return n
}

func TestLoanLedger_BorrowAndOpenLoan(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u := mustCreateUser(t, db, ledger, "a@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	open, err := ledger.OpenLoan(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	require.NoError(t, ledger.RecordBorrow(ctx, u.ID, b.ID))

	open, err = ledger.OpenLoan(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, u.ID, open.UserID)
	assert.Nil(t, open.ReturnDate)
	assert.Nil(t, open.UserScore)
}

func TestLoanLedger_Borrow_BookNotFound(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)

	u := mustCreateUser(t, db, ledger, "a@example.com")

	err := ledger.RecordBorrow(context.Background(), u.ID, 424242)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindBookNotFound, de.Kind)
}

func TestLoanLedger_Borrow_AlreadyBorrowed(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u1 := mustCreateUser(t, db, ledger, "a@example.com")
	u2 := mustCreateUser(t, db, ledger, "b@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	require.NoError(t, ledger.RecordBorrow(ctx, u1.ID, b.ID))

	err := ledger.RecordBorrow(ctx, u2.ID, b.ID)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindBookAlreadyBorrowed, de.Kind)

	// 台账不变：仍是一条在借记录，归属先到者
	assert.EqualValues(t, 1, openLoanCount(t, db, b.ID))
	open, err := ledger.OpenLoan(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, open.UserID)
}

func TestLoanLedger_Return_SetsScoreAndDate(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u := mustCreateUser(t, db, ledger, "a@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	require.NoError(t, ledger.RecordBorrow(ctx, u.ID, b.ID))
	require.NoError(t, ledger.RecordReturn(ctx, u.ID, b.ID, 4.5))

	open, err := ledger.OpenLoan(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	var m loanmodel.LoanModel
	require.NoError(t, db.Where("book_id = ?", b.ID).First(&m).Error)
	require.NotNil(t, m.ReturnDate)
	require.NotNil(t, m.UserScore)
	assert.Equal(t, 4.5, *m.UserScore)
}

func TestLoanLedger_Return_NotBorrowed(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u := mustCreateUser(t, db, ledger, "a@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	err := ledger.RecordReturn(ctx, u.ID, b.ID, 3)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindBookNotBorrowed, de.Kind)
}

func TestLoanLedger_Return_WrongUser(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u1 := mustCreateUser(t, db, ledger, "a@example.com")
	u2 := mustCreateUser(t, db, ledger, "b@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	require.NoError(t, ledger.RecordBorrow(ctx, u1.ID, b.ID))

	// 非借阅人不能归还
	err := ledger.RecordReturn(ctx, u2.ID, b.ID, 3)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindBookNotBorrowed, de.Kind)
	assert.EqualValues(t, 1, openLoanCount(t, db, b.ID))
}

func TestLoanLedger_ReBorrow(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u := mustCreateUser(t, db, ledger, "a@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	require.NoError(t, ledger.RecordBorrow(ctx, u.ID, b.ID))
	require.NoError(t, ledger.RecordReturn(ctx, u.ID, b.ID, 4))
	require.NoError(t, ledger.RecordBorrow(ctx, u.ID, b.ID))

	var ms []loanmodel.LoanModel
	require.NoError(t, db.Where("book_id = ?", b.ID).Order("created_at ASC").Find(&ms).Error)
	require.Len(t, ms, 2)

	// 第一条保持已归还状态和原评分，归还后唯一索引占位（open_flag）已释放
	require.NotNil(t, ms[0].ReturnDate)
	require.NotNil(t, ms[0].UserScore)
	assert.Equal(t, 4.0, *ms[0].UserScore)
	assert.Nil(t, ms[0].OpenFlag)
	assert.Nil(t, ms[1].ReturnDate)
	require.NotNil(t, ms[1].OpenFlag)
}

// MySQL 不支持部分索引，唯一性依赖 (book_id, open_flag) 复合索引对 NULL
// 不去重的语义，借-还-再借的完整生命周期必须在该驱动下同样成立
func TestLoanLedger_MySQL_BorrowReturnReBorrow(t *testing.T) {
	db := setupMySQL(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u1 := mustCreateUser(t, db, ledger, "a@example.com")
	u2 := mustCreateUser(t, db, ledger, "b@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	require.NoError(t, ledger.RecordBorrow(ctx, u1.ID, b.ID))

	// 在借期间第二人借阅被拒
	err := ledger.RecordBorrow(ctx, u2.ID, b.ID)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindBookAlreadyBorrowed, de.Kind)

	require.NoError(t, ledger.RecordReturn(ctx, u1.ID, b.ID, 4))

	// 归还后可以再次借出，历史记录不受唯一索引影响
	require.NoError(t, ledger.RecordBorrow(ctx, u2.ID, b.ID))

	var ms []loanmodel.LoanModel
	require.NoError(t, db.Where("book_id = ?", b.ID).Order("id ASC").Find(&ms).Error)
	require.Len(t, ms, 2)
	assert.Nil(t, ms[0].OpenFlag)
	require.NotNil(t, ms[0].UserScore)
	assert.Equal(t, 4.0, *ms[0].UserScore)
	assert.Equal(t, u2.ID, ms[1].UserID)
	assert.Nil(t, ms[1].ReturnDate)
}

func TestLoanLedger_AverageScore(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	u := mustCreateUser(t, db, ledger, "a@example.com")
	b := mustCreateBook(t, db, ledger, "Dune")

	avg, err := ledger.AverageScore(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, avg, "no scored loans yet")

	require.NoError(t, ledger.RecordBorrow(ctx, u.ID, b.ID))
	require.NoError(t, ledger.RecordReturn(ctx, u.ID, b.ID, 5))
	require.NoError(t, ledger.RecordBorrow(ctx, u.ID, b.ID))

	// 在借记录（user_score 为 NULL）不参与均值
	avg, err = ledger.AverageScore(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 5.0, *avg)

	require.NoError(t, ledger.RecordReturn(ctx, u.ID, b.ID, 4))

	avg, err = ledger.AverageScore(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 4.5, *avg)
}

func TestLoanLedger_ConcurrentBorrow(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	ctx := context.Background()

	b := mustCreateBook(t, db, ledger, "Dune")

	const workers = 8
	users := make([]*domain.User, workers)
	for i := range users {
		users[i] = mustCreateUser(t, db, ledger, uuid.NewString()+"@example.com")
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ledger.RecordBorrow(ctx, users[i].ID, b.ID)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		de, ok := domain.AsError(err)
		require.True(t, ok, "unexpected error: %v", err)
		assert.Equal(t, domain.KindBookAlreadyBorrowed, de.Kind)
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent borrow must win")
	assert.EqualValues(t, 1, openLoanCount(t, db, b.ID))
}

func TestUserRepo_DuplicateEmailBackstop(t *testing.T) {
	db := setupDB(t)
	ledger := NewLoanLedger(db)
	r := NewUserRepo(db, ledger)
	ctx := context.Background()

	now := time.Now()
	u1 := &domain.User{ID: uuid.NewString(), Name: "A", Email: "dup@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.Create(ctx, u1))

	u2 := &domain.User{ID: uuid.NewString(), Name: "B", Email: "dup@example.com", CreatedAt: now, UpdatedAt: now}
	err := r.Create(ctx, u2)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindUserAlreadyExists, de.Kind)
}
