package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type productForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
}

func (f productForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.Description, validation.Required),
		validation.Field(&f.Price, validation.Required, is.Int),
		validation.Field(&f.Quantity, validation.Required, is.Int),
	)
}

type productPatchForm struct {
	Name     *string `json:"name"`
	Price    *string `json:"price"`
	Quantity *string `json:"quantity"`
}

func (f productPatchForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&f.Price, validation.NilOrNotEmpty, is.Int),
		validation.Field(&f.Quantity, validation.NilOrNotEmpty, is.Int),
	)
}

func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

// parseAmount parses an integer form field that already passed is.Int.
// Values outside the int64 range are a validation error, never clamped.
func parseAmount(field, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, invalid(fmt.Errorf("%s: must fit in a 64-bit integer", field))
	}
	return n, nil
}

func (s *Server) subject(c *gin.Context) string {
	if id := identityFrom(c); id != nil {
		return id.Subject
	}
	return ""
}

func (s *Server) createProduct(c *gin.Context) {
	if !s.parseForm(c) {
		return
	}

	form := productForm{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
		Quantity:    c.PostForm("quantity"),
	}
	if err := form.Validate(); err != nil {
		s.writeError(c, invalid(err))
		return
	}

	price, err := parseAmount("price", form.Price)
	if err != nil {
		s.writeError(c, err)
		return
	}
	quantity, err := parseAmount("quantity", form.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}

	in := services.CreateProductInput{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Quantity:    quantity,
	}

	file, name, err := formFile(c, "product_header_image")
	if err != nil {
		s.writeError(c, invalid(err))
		return
	}
	if file != nil {
		defer file.Close()
		in.Image, in.ImageName = file, name
	}

	p, err := s.catalog.Create(c.Request.Context(), s.subject(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) listProducts(c *gin.Context) {
	items, err := s.catalog.List(c.Request.Context(), s.subject(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) listProductsAdmin(c *gin.Context) {
	items, err := s.catalog.ListAdmin(c.Request.Context(), s.subject(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) getProduct(c *gin.Context) {
	p, err := s.catalog.Get(c.Request.Context(), s.subject(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) getProductAdmin(c *gin.Context) {
	p, err := s.catalog.GetAdmin(c.Request.Context(), s.subject(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProduct(c *gin.Context) {
	if !s.parseForm(c) {
		return
	}

	form := productPatchForm{
		Name:     optionalForm(c, "name"),
		Price:    optionalForm(c, "price"),
		Quantity: optionalForm(c, "quantity"),
	}
	if err := form.Validate(); err != nil {
		s.writeError(c, invalid(err))
		return
	}

	var in services.UpdateProductInput
	in.Name = form.Name
	in.Description = optionalForm(c, "description")
	if form.Price != nil {
		v, err := parseAmount("price", *form.Price)
		if err != nil {
			s.writeError(c, err)
			return
		}
		in.Price = &v
	}
	if form.Quantity != nil {
		v, err := parseAmount("quantity", *form.Quantity)
		if err != nil {
			s.writeError(c, err)
			return
		}
		in.Quantity = &v
	}

	file, name, err := formFile(c, "product_header_image")
	if err != nil {
		s.writeError(c, invalid(err))
		return
	}
	if file != nil {
		defer file.Close()
		in.Image, in.ImageName = file, name
	}

	p, err := s.catalog.Update(c.Request.Context(), s.subject(c), c.Param("id"), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.catalog.Delete(c.Request.Context(), s.subject(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
