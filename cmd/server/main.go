// Command server runs the eFarm storefront and its maintenance tasks.
package main

func main() {
	Execute()
}
