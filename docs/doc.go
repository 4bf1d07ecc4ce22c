// Package docs provides generated OpenAPI documentation.
//
// firscan API
//
//	@title			firscan API
//	@version		1.0
//	@description	FIR OCR correction, field extraction and rule learning API.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/firscan
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/firscan/serve.go -o ./swagger --parseDependency --parseInternal
