package orderControllers

import "errors"

var (
	errCartNotFound   = errors.New("cart not found")
	errUnknownProduct = errors.New("product does not exist")
)
