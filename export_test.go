package authcore

var TestConfig = testConfig
