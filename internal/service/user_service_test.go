package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/model"
)

func setupUserService() (*testEnv, UserService) {
	env := newTestEnv()
	return env, NewUserService(env.repo, zap.NewNop())
}

// buildXLSX 在内存中生成导入文件
func buildXLSX(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("写入单元格失败: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("生成 xlsx 失败: %v", err)
	}
	return buf
}

func TestCreateUser_TempPassword(t *testing.T) {
	env, svc := setupUserService()
	ctx := context.Background()
	dept := "CCS"

	resp, err := svc.CreateUser(ctx, &dto.CreateUserRequest{Name: "Prof. Garcia", Email: "Garcia@School.edu", Role: model.RoleFaculty, Department: &dept})
	if err != nil {
		t.Fatalf("CreateUser 应成功: %v", err)
	}
	if len(resp.TempPassword) != 10 {
		t.Errorf("临时密码长度应为 10，实际: %d", len(resp.TempPassword))
	}
	stored := env.users.users[resp.User.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(resp.TempPassword)) != nil {
		t.Errorf("存储的哈希应与临时密码匹配")
	}
	if stored.Email != "garcia@school.edu" || stored.Role != model.RoleFaculty {
		t.Errorf("用户字段不正确: %+v", stored)
	}

	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{Name: "Dup", Email: "garcia@school.edu", Role: model.RoleAdmin}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 50; i++ {
		pwd, err := generateTempPassword(10)
		if err != nil {
			t.Fatalf("生成临时密码失败: %v", err)
		}
		if !strings.ContainsAny(pwd, "23456789") {
			t.Errorf("临时密码应包含数字: %s", pwd)
		}
		if strings.ContainsAny(pwd, "0O1lI") {
			t.Errorf("临时密码不应包含易混淆字符: %s", pwd)
		}
	}
}

func TestParseImportFile(t *testing.T) {
	_, svc := setupUserService()

	buf := buildXLSX(t, [][]string{
		{"邮箱", "姓名", "学院"},
		{"A@School.edu", "Alice", "CCS"},
		{"", "", ""},
		{"bob@school.edu", "Bob", "CBA"},
	})
	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("ParseImportFile 应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("应跳过空行，实际: %d 行", len(rows))
	}
	if rows[0].Email != "a@school.edu" || rows[0].Name != "Alice" || rows[1].Row != 4 {
		t.Errorf("解析结果不正确: %+v", rows)
	}

	_, err = svc.ParseImportFile(buildXLSX(t, [][]string{{"name", "email"}, {"x", "y"}}))
	if !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("缺列应返回 ErrImportBadHeader，实际: %v", err)
	}
	_, err = svc.ParseImportFile(buildXLSX(t, [][]string{{"name", "email", "department"}}))
	if !errors.Is(err, ErrImportNoData) {
		t.Errorf("无数据行应返回 ErrImportNoData，实际: %v", err)
	}
	if _, err := svc.ParseImportFile(strings.NewReader("not an xlsx")); !errors.Is(err, ErrImportInvalidFile) {
		t.Errorf("非法文件应返回 ErrImportInvalidFile，实际: %v", err)
	}
}

func TestImportStudents(t *testing.T) {
	env, svc := setupUserService()
	ctx := context.Background()
	_ = env.users.Create(ctx, &model.User{Name: "Existing", Email: "taken@school.edu", Role: model.RoleStudent})

	resp, err := svc.ImportStudents(ctx, []ImportUserRow{
		{Row: 2, Name: "Alice", Email: "alice@school.edu", Department: "CCS"},
		{Row: 3, Name: "", Email: "blank@school.edu", Department: "CCS"},
		{Row: 4, Name: "Taken", Email: "taken@school.edu", Department: "CCS"},
		{Row: 5, Name: "Bad", Email: "not-an-email", Department: "CCS"},
		{Row: 6, Name: "Alice Again", Email: "alice@school.edu", Department: "CCS"},
		{Row: 7, Name: "Bob", Email: "bob@school.edu", Department: "CBA"},
	})
	if err != nil {
		t.Fatalf("ImportStudents 应成功: %v", err)
	}
	if resp.Total != 6 || resp.Success != 2 || resp.Failed != 4 {
		t.Errorf("导入统计不正确: %+v", resp)
	}
	if len(resp.Created) != 2 || resp.Created[0].TempPassword == "" {
		t.Errorf("应返回成功账号及临时密码: %+v", resp.Created)
	}

	failedRows := map[int]bool{}
	for _, e := range resp.Errors {
		failedRows[e.Row] = true
	}
	for _, row := range []int{3, 4, 5, 6} {
		if !failedRows[row] {
			t.Errorf("第 %d 行应失败", row)
		}
	}

	created, _ := env.users.GetByEmail(ctx, "bob@school.edu")
	if created == nil || created.Role != model.RoleStudent || created.Department == nil || *created.Department != "CBA" {
		t.Errorf("导入的账号不正确: %+v", created)
	}
}

func TestUserList_RoleFilter(t *testing.T) {
	env, svc := setupUserService()
	ctx := context.Background()
	_ = env.users.Create(ctx, &model.User{Name: "S", Email: "s@school.edu", Role: model.RoleStudent})
	_ = env.users.Create(ctx, &model.User{Name: "F", Email: "f@school.edu", Role: model.RoleFaculty})

	users, total, err := svc.List(ctx, &dto.UserListRequest{Role: model.RoleFaculty})
	if err != nil || total != 1 || users[0].Email != "f@school.edu" {
		t.Errorf("角色过滤不正确: %v %+v", err, users)
	}
}

func TestUserList_DepartmentAndKeyword(t *testing.T) {
	env, svc := setupUserService()
	ctx := context.Background()
	ccs, cba := "CCS", "CBA"
	_ = env.users.Create(ctx, &model.User{Name: "Ana Reyes", Email: "ana@school.edu", Role: model.RoleStudent, Department: &ccs})
	_ = env.users.Create(ctx, &model.User{Name: "Ben Cruz", Email: "ben@school.edu", Role: model.RoleStudent, Department: &ccs})
	_ = env.users.Create(ctx, &model.User{Name: "Ana Lim", Email: "lim@school.edu", Role: model.RoleStudent, Department: &cba})

	users, total, err := svc.List(ctx, &dto.UserListRequest{Department: "CCS"})
	if err != nil || total != 2 {
		t.Fatalf("学院过滤不正确: %v total=%d", err, total)
	}
	if users[0].Email != "ben@school.edu" {
		t.Errorf("应按创建时间倒序，实际首条: %s", users[0].Email)
	}

	users, total, _ = svc.List(ctx, &dto.UserListRequest{Department: "CCS", Keyword: " ana "})
	if total != 1 || users[0].Email != "ana@school.edu" {
		t.Errorf("关键字过滤不正确: %+v", users)
	}
}

func TestImportStudents_EmailCaseInsensitive(t *testing.T) {
	env, svc := setupUserService()
	ctx := context.Background()
	_ = env.users.Create(ctx, &model.User{Name: "Old", Email: "Taken@School.edu", Role: model.RoleStudent})

	resp, err := svc.ImportStudents(ctx, []ImportUserRow{
		{Row: 2, Name: "Taken", Email: "taken@school.edu", Department: "CCS"},
		{Row: 3, Name: "Fresh", Email: "fresh@school.edu", Department: "CCS"},
	})
	if err != nil {
		t.Fatalf("导入应成功: %v", err)
	}
	if resp.Success != 1 || resp.Failed != 1 || resp.Errors[0].Row != 2 {
		t.Errorf("已注册邮箱应按不区分大小写判定: %+v", resp)
	}
}
