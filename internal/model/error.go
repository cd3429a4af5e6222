package model

import "errors"

var (
	ErrValidation             = errors.New("validation error")                                  // 400
	ErrPartNotFound           = errors.New("part not found")                                    // 404
	ErrComponentPartsNotFound = errors.New("component parts not found")                         // 404
	ErrDuplicatePartName      = errors.New("part name already exists")                          // 409
	ErrCircularDependency     = errors.New("circular dependency detected in assembled parts")   // 400
	ErrInsufficientQuantity   = errors.New("insufficient quantity")
)
