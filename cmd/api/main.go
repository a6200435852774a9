package main

// @title WhatsApp Support Agent APIs
// @version 1.0
// @description WhatsApp customer-support chat agent for a Shopify storefront.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:9089
// @BasePath /
// @schemes http
import (
	_ "github.com/JoaoVlLeao/wpp-gemini-bot/docs"
	protocol "github.com/JoaoVlLeao/wpp-gemini-bot/protocal"

	_ "github.com/arsmn/fiber-swagger/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	err := protocol.ServeHTTP()
	if err != nil {
		logrus.Println(err)
	}
}
