package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "finly/internal/errors"
	"finly/internal/models"
	"finly/internal/services"
)

type mockCategoryService struct {
	createCategoryFn    func(userID, name string) (*models.Category, error)
	getUserCategoriesFn func(userID string) ([]models.Category, error)
	getCategoryByIDFn   func(userID, categoryID string) (*models.Category, error)
	getCategoryByNameFn func(userID, name string) (*models.Category, error)
	updateCategoryFn    func(userID, categoryID, name string) (*models.Category, error)
	deleteCategoryFn    func(userID, categoryID string) error
}

func (m *mockCategoryService) CreateCategory(userID, name string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, name)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(userID string) ([]models.Category, error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(userID)
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByName(userID, name string) (*models.Category, error) {
	if m.getCategoryByNameFn != nil {
		return m.getCategoryByNameFn(userID, name)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID, name string) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, name)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/categories", injectUserID(testUserID))
	g.POST("/createCategory", handler.CreateCategory)
	g.GET("/getCategories", handler.GetCategories)
	g.GET("/getCategory/:id", handler.GetCategory)
	g.PUT("/editCategory/:id", handler.EditCategory)
	g.DELETE("/deleteCategory/:id", handler.DeleteCategory)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockCategoryService{
			createCategoryFn: func(userID, name string) (*models.Category, error) {
				if userID != testUserID {
					t.Errorf("expected caller %s, got %s", testUserID, userID)
				}
				return &models.Category{Base: models.Base{ID: "cat-1"}, UserID: userID, Name: models.NormalizeCategoryName(name)}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit))

		rec := doRequest(r, "POST", "/categories/createCategory", `{"name":"Groceries"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		category := parseJSON(t, rec)["category"].(map[string]interface{})
		if category["name"] != "groceries" {
			t.Errorf("expected lowercased name, got %v", category["name"])
		}
		if len(audit.actions) != 1 || audit.actions[0] != services.AuditCreateCategory {
			t.Errorf("expected create audit, got %v", audit.actions)
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories/createCategory", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on duplicate", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockCategoryService{
			createCategoryFn: func(_, _ string) (*models.Category, error) {
				return nil, apperrors.ErrDuplicateCategory
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit))

		rec := doRequest(r, "POST", "/categories/createCategory", `{"name":"food"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CATEGORY")
		if len(audit.actions) != 0 {
			t.Errorf("failed create must not be audited, got %v", audit.actions)
		}
	})
}

func TestCategoryHandler_GetCategories(t *testing.T) {
	svc := &mockCategoryService{
		getUserCategoriesFn: func(_ string) ([]models.Category, error) {
			return []models.Category{{Name: "food"}, {Name: "rent"}}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/categories/getCategories", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	categories := parseJSON(t, rec)["categories"].([]interface{})
	if len(categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(categories))
	}
}

func TestCategoryHandler_GetCategory(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		svc := &mockCategoryService{
			getCategoryByIDFn: func(_, id string) (*models.Category, error) {
				return &models.Category{Base: models.Base{ID: id}, Name: "food"}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/getCategory/cat-1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		category := parseJSON(t, rec)["category"].(map[string]interface{})
		if category["id"] != "cat-1" {
			t.Errorf("expected cat-1, got %v", category["id"])
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockCategoryService{
			getCategoryByIDFn: func(_, _ string) (*models.Category, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/getCategory/nope", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}

func TestCategoryHandler_EditCategory(t *testing.T) {
	audit := &mockAuditService{}
	svc := &mockCategoryService{
		updateCategoryFn: func(_, id, name string) (*models.Category, error) {
			return &models.Category{Base: models.Base{ID: id}, Name: name}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(svc, audit))

	rec := doRequest(r, "PUT", "/categories/editCategory/cat-1", `{"name":"dining"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	category := parseJSON(t, rec)["category"].(map[string]interface{})
	if category["name"] != "dining" {
		t.Errorf("expected dining, got %v", category["name"])
	}
	if len(audit.actions) != 1 || audit.actions[0] != services.AuditUpdateCategory {
		t.Errorf("expected update audit, got %v", audit.actions)
	}
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		var deleted string
		audit := &mockAuditService{}
		svc := &mockCategoryService{
			deleteCategoryFn: func(_, id string) error {
				deleted = id
				return nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit))

		rec := doRequest(r, "DELETE", "/categories/deleteCategory/cat-1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != "cat-1" {
			t.Errorf("expected cat-1 deleted, got %q", deleted)
		}
		if parseJSON(t, rec)["message"] != "Category deleted successfully" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
		if len(audit.actions) != 1 || audit.actions[0] != services.AuditDeleteCategory {
			t.Errorf("expected delete audit, got %v", audit.actions)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockCategoryService{
			deleteCategoryFn: func(_, _ string) error { return apperrors.ErrCategoryNotFound },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/categories/deleteCategory/nope", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
