//go:build !local

package main

// デフォルトのビルド（go build .）、scheduler、cli でビルドされる
func init() {
	deploymentMode = "production"
	collectionPrefix = ""
}
