package main

// General API documentation for swaggo. Build with -tags=swagger to serve the UI.
//
// @title           irisd API
// @version         1.0
// @description     HTTP API serving predictions from the latest tracked iris classifier run.
//
// @contact.name   irisd maintainers
// @contact.url    https://github.com/your-org/irisd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
