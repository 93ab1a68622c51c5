// Package sdk holds the value types shared by every sdkdesk component:
// the candidate/version Key that identifies an operation, catalog models
// (candidates, versions, statistics) and small formatting helpers.
package sdk
