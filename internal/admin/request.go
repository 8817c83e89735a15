package admin

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	v, err := c.ParamsInt(name)
	if err != nil || v <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz "+name)
	}
	return uint(v), nil
}
